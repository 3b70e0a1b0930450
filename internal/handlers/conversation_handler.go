package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/Dylan-Floyd/effe81/internal/cache"
	"github.com/Dylan-Floyd/effe81/internal/httpx"
	"github.com/Dylan-Floyd/effe81/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ConversationHandler struct {
	messageService *service.MessageService
	summaryCache   *cache.SummaryCache
}

func NewConversationHandler(messageService *service.MessageService, summaryCache *cache.SummaryCache) *ConversationHandler {
	return &ConversationHandler{
		messageService: messageService,
		summaryCache:   summaryCache,
	}
}

// GetConversations returns the viewer's conversation summaries, newest
// activity first. This full snapshot is also the client's sole recovery path
// for missed pushes, so it must never depend on stored counters.
func (h *ConversationHandler) GetConversations(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if cached, ok := h.summaryCache.GetSummaryList(userID); ok {
		return c.JSON(cached)
	}

	summaries, err := h.messageService.ListConversations(userID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	_ = h.summaryCache.SetSummaryList(userID, summaries)

	return c.JSON(summaries)
}

// MarkConversationRead handles PATCH /api/conversations/:id. The only
// permitted body is exactly {"unread_count": 0}; anything else is a 409 so
// the mutation surface stays minimal and auditable.
func (h *ConversationHandler) MarkConversationRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return httpx.BadRequest(c, "invalid_conversation_id", "Invalid conversation id")
	}

	if !isExactZeroUnread(c.Body()) {
		return httpx.Conflict(c, "invalid_patch", "conversations may only be PATCHed to set unread_count to 0")
	}

	if _, err := h.messageService.MarkConversationRead(uint(conversationID), userID); err != nil {
		return httpx.FromError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// isExactZeroUnread accepts only a body of exactly {"unread_count": 0}.
func isExactZeroUnread(body []byte) bool {
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(body, &attrs); err != nil {
		return false
	}
	if len(attrs) != 1 {
		return false
	}
	raw, ok := attrs["unread_count"]
	if !ok {
		return false
	}
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return false
	}
	return count == 0
}
