package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/Dylan-Floyd/effe81/internal/httpx"
	"github.com/Dylan-Floyd/effe81/internal/service"
	"github.com/Dylan-Floyd/effe81/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// SendMessage expects {recipient_id, text, conversation_id, client_id} where
// conversation_id is null until the first exchange creates the conversation.
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.SendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	input.Text = validation.TrimAndLimit(input.Text, validation.MaxMessageLength())
	if input.Text == "" {
		return httpx.BadRequest(c, "missing_text", "Text is required")
	}

	result, err := h.messageService.SendMessage(userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":          result.Message.ToResponse(),
		"conversation_id":  result.ConversationID,
		"new_conversation": result.NewConversation,
		"sender":           result.Sender,
	})
}

// MarkMessageRead handles PATCH /api/messages/:id. The only permitted body
// is exactly {"was_read": true}; anything else is a 409.
func (h *MessageHandler) MarkMessageRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	messageID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return httpx.BadRequest(c, "invalid_message_id", "Invalid message id")
	}

	if !isExactWasRead(c.Body()) {
		return httpx.Conflict(c, "invalid_patch", "messages may only be PATCHed to set was_read to true")
	}

	if err := h.messageService.MarkMessageRead(uint(messageID), userID); err != nil {
		return httpx.FromError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// isExactWasRead accepts only a body of exactly {"was_read": true}.
func isExactWasRead(body []byte) bool {
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(body, &attrs); err != nil {
		return false
	}
	if len(attrs) != 1 {
		return false
	}
	raw, ok := attrs["was_read"]
	if !ok {
		return false
	}
	var wasRead bool
	if err := json.Unmarshal(raw, &wasRead); err != nil {
		return false
	}
	return wasRead
}
