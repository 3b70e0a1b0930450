package service

import (
	"errors"
	"sort"

	"github.com/Dylan-Floyd/effe81/internal/apperr"
	"github.com/Dylan-Floyd/effe81/internal/cache"
	"github.com/Dylan-Floyd/effe81/internal/models"
	"github.com/Dylan-Floyd/effe81/internal/presence"
	"github.com/Dylan-Floyd/effe81/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PresenceRegistry is the slice of the presence registry the services need.
// The reconciler only ever asks "is this user reachable" and hands off
// payloads; it never touches transport primitives.
type PresenceRegistry interface {
	IsOnline(userID uint) bool
	SendTo(userID uint, event string, payload interface{})
}

// MessageService reconciles message read-state: it derives unread counts and
// latest-read markers from storage, applies read transitions, and emits
// best-effort pushes through the presence registry.
type MessageService struct {
	messageRepo  repository.MessageRepositoryInterface
	convRepo     repository.ConversationRepositoryInterface
	userRepo     repository.UserRepositoryInterface
	registry     PresenceRegistry
	summaryCache *cache.SummaryCache
}

func NewMessageService(
	messageRepo repository.MessageRepositoryInterface,
	convRepo repository.ConversationRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	registry PresenceRegistry,
	summaryCache *cache.SummaryCache,
) *MessageService {
	return &MessageService{
		messageRepo:  messageRepo,
		convRepo:     convRepo,
		userRepo:     userRepo,
		registry:     registry,
		summaryCache: summaryCache,
	}
}

type SendMessageInput struct {
	ConversationID *uint  `json:"conversation_id"`
	RecipientID    uint   `json:"recipient_id"`
	Text           string `json:"text"`
	ClientID       string `json:"client_id"`
}

type SendMessageResult struct {
	Message         *models.Message      `json:"message"`
	ConversationID  uint                 `json:"conversation_id"`
	NewConversation bool                 `json:"new_conversation"`
	Sender          *models.UserResponse `json:"sender,omitempty"`
}

// SendMessage persists a message, creating the conversation lazily on the
// first exchange between two users, and pushes a new-message event to the
// recipient when they are online. The sender payload rides along only for a
// brand-new conversation, so the recipient's client can synthesize the entry.
func (s *MessageService) SendMessage(senderID uint, input SendMessageInput) (*SendMessageResult, error) {
	if input.Text == "" {
		return nil, apperr.InvalidArg("text is required")
	}

	var conv *models.Conversation
	newConversation := false

	if input.ConversationID != nil && *input.ConversationID != 0 {
		var err error
		conv, err = s.convRepo.FindByID(*input.ConversationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("conversation not found")
			}
			return nil, apperr.Internal("failed to load conversation", err)
		}
		if !conv.HasParticipant(senderID) {
			return nil, apperr.Forbidden("not a participant of this conversation")
		}
	} else {
		if input.RecipientID == 0 {
			return nil, apperr.InvalidArg("recipient_id is required")
		}
		if input.RecipientID == senderID {
			return nil, apperr.InvalidArg("cannot message yourself")
		}
		if _, err := s.userRepo.FindByID(input.RecipientID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("recipient not found")
			}
			return nil, apperr.Internal("failed to look up recipient", err)
		}

		var err error
		conv, err = s.convRepo.FindBetween(senderID, input.RecipientID)
		if err != nil {
			return nil, apperr.Internal("failed to look up conversation", err)
		}
		if conv == nil {
			conv = &models.Conversation{User1ID: senderID, User2ID: input.RecipientID}
			if err := s.convRepo.Create(conv); err != nil {
				return nil, apperr.Internal("failed to create conversation", err)
			}
			newConversation = true
		}
	}

	clientID := input.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	message := &models.Message{
		ClientID:       clientID,
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           input.Text,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, apperr.Internal("failed to create message", err)
	}

	recipientID := conv.OtherParticipantID(senderID)
	_ = s.summaryCache.Invalidate(senderID, recipientID)

	result := &SendMessageResult{
		Message:         message,
		ConversationID:  conv.ID,
		NewConversation: newConversation,
	}

	if newConversation {
		if sender, err := s.userRepo.FindByID(senderID); err == nil {
			resp := sender.ToResponse(s.registry.IsOnline(senderID))
			result.Sender = &resp
		}
	}

	if s.registry.IsOnline(recipientID) {
		payload := presence.NewMessagePayload{Message: message.ToResponse()}
		payload.Sender = result.Sender
		s.registry.SendTo(recipientID, presence.EventNewMessage, payload)
	}

	return result, nil
}

// MarkConversationRead flips every unread message sent to readerID in the
// conversation. The transition is idempotent and monotone: a second call
// changes zero rows and emits no push. When rows did change and the other
// participant is online, they receive a read-receipt naming their latest
// message the reader has now seen.
func (s *MessageService) MarkConversationRead(conversationID, readerID uint) (int, error) {
	conv, err := s.convRepo.FindByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.NotFound("conversation not found")
		}
		return 0, apperr.Internal("failed to load conversation", err)
	}
	if !conv.HasParticipant(readerID) {
		return 0, apperr.Forbidden("not a participant of this conversation")
	}

	otherID := conv.OtherParticipantID(readerID)

	flipped, err := s.messageRepo.MarkConversationRead(conversationID, otherID)
	if err != nil {
		return 0, apperr.Internal("failed to mark conversation read", err)
	}

	latest, err := s.messageRepo.FindLatestFrom(conversationID, otherID)
	if err != nil {
		return 0, apperr.Internal("failed to find latest message", err)
	}
	if latest != nil {
		if err := s.convRepo.SetLastRead(conversationID, readerID, latest.ID); err != nil {
			return 0, apperr.Internal("failed to advance last-read pointer", err)
		}
	}

	_ = s.summaryCache.Invalidate(readerID, otherID)

	if len(flipped) > 0 && s.registry.IsOnline(otherID) {
		payload := presence.ReadReceiptPayload{
			ConversationID: conversationID,
			ReadMessageIDs: flipped,
		}
		if latest != nil {
			payload.LatestReadID = &latest.ID
		}
		s.registry.SendTo(otherID, presence.EventReadReceipt, payload)
	}

	return len(flipped), nil
}

// MarkMessageRead flips a single message, for the case where one freshly
// arrived message is observed while the conversation is already open.
// Senders can never mark their own messages.
func (s *MessageService) MarkMessageRead(messageID, readerID uint) error {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("message not found")
		}
		return apperr.Internal("failed to load message", err)
	}

	conv, err := s.convRepo.FindByID(message.ConversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("conversation not found")
		}
		return apperr.Internal("failed to load conversation", err)
	}
	if !conv.HasParticipant(readerID) {
		return apperr.Forbidden("not a participant of this conversation")
	}
	if message.SenderID == readerID {
		return apperr.Forbidden("senders cannot mark their own messages read")
	}

	if message.WasRead {
		return nil
	}

	if err := s.messageRepo.MarkAsRead(messageID); err != nil {
		return apperr.Internal("failed to mark message read", err)
	}
	if err := s.convRepo.SetLastRead(conv.ID, readerID, messageID); err != nil {
		return apperr.Internal("failed to advance last-read pointer", err)
	}

	_ = s.summaryCache.Invalidate(readerID, message.SenderID)

	if s.registry.IsOnline(message.SenderID) {
		s.registry.SendTo(message.SenderID, presence.EventReadReceipt, presence.ReadReceiptPayload{
			ConversationID: conv.ID,
			ReadMessageID:  &messageID,
		})
	}

	return nil
}

// ListConversations assembles the viewer's conversation summaries, newest
// activity first. Unread counts and latest-read markers are derived per
// conversation by ComputeReadState; nothing here consults stored counters.
func (s *MessageService) ListConversations(userID uint) ([]models.ConversationSummary, error) {
	conversations, err := s.convRepo.ListForUser(userID)
	if err != nil {
		return nil, apperr.Internal("failed to list conversations", err)
	}

	summaries := make([]models.ConversationSummary, 0, len(conversations))
	for i := range conversations {
		summaries = append(summaries, s.summarize(&conversations[i], userID))
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LatestMessage, summaries[j].LatestMessage
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	return summaries, nil
}

func (s *MessageService) summarize(conv *models.Conversation, viewerID uint) models.ConversationSummary {
	otherID := conv.OtherParticipantID(viewerID)
	other := conv.Participant(otherID)

	rs := models.ComputeReadState(
		conv.Messages,
		viewerID,
		conv.LastReadID(viewerID),
		conv.OtherLastReadID(viewerID),
	)

	summary := models.ConversationSummary{
		ID:          conv.ID,
		OtherUser:   other.ToResponse(s.registry.IsOnline(otherID)),
		Messages:    make([]models.MessageResponse, len(conv.Messages)),
		UnreadCount: rs.UnreadCount,
	}
	for i := range conv.Messages {
		summary.Messages[i] = conv.Messages[i].ToResponse()
	}
	summary.LatestMessage = toResponsePtr(rs.LatestMessage)
	summary.OthersLatestReadMessage = toResponsePtr(rs.OthersLatestReadMessage)
	summary.UsersLatestReadMessage = toResponsePtr(rs.UsersLatestReadMessage)
	return summary
}

func toResponsePtr(m *models.Message) *models.MessageResponse {
	if m == nil {
		return nil
	}
	resp := m.ToResponse()
	return &resp
}
