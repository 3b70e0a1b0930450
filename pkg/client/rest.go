package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Dylan-Floyd/effe81/internal/models"
)

// API is a thin JSON client for the messenger REST surface. It carries the
// bearer token obtained at login and feeds the Store: snapshots in, sends and
// read acknowledgements out.
type API struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewAPI(baseURL string) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Token returns the bearer token, for wiring the websocket dial.
func (a *API) Token() string {
	return a.token
}

type loginResponse struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// Login authenticates and stores the bearer token for subsequent calls.
func (a *API) Login(ctx context.Context, username, password string) (models.UserResponse, error) {
	var resp loginResponse
	err := a.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return models.UserResponse{}, err
	}
	a.token = resp.Token
	return resp.User, nil
}

// FetchConversations retrieves the full snapshot, the client's recovery path
// for any missed push.
func (a *API) FetchConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	var summaries []models.ConversationSummary
	if err := a.do(ctx, http.MethodGet, "/api/conversations", nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// SearchUsers looks up users by username prefix for starting new
// conversations.
func (a *API) SearchUsers(ctx context.Context, query string, limit int) ([]models.UserResponse, error) {
	var users []models.UserResponse
	path := fmt.Sprintf("/api/users/search?q=%s&limit=%d", url.QueryEscape(query), limit)
	if err := a.do(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

type sendMessageRequest struct {
	ConversationID *uint  `json:"conversation_id"`
	RecipientID    uint   `json:"recipient_id"`
	Text           string `json:"text"`
	ClientID       string `json:"client_id"`
}

type sendMessageResponse struct {
	Message         models.MessageResponse `json:"message"`
	ConversationID  uint                   `json:"conversation_id"`
	NewConversation bool                   `json:"new_conversation"`
}

// SendMessage posts a message. conversationID is nil for the first message to
// a new counterpart; the server creates the conversation and returns its ID.
func (a *API) SendMessage(ctx context.Context, conversationID *uint, recipientID uint, text, clientID string) (models.MessageResponse, uint, bool, error) {
	var resp sendMessageResponse
	err := a.do(ctx, http.MethodPost, "/api/messages", sendMessageRequest{
		ConversationID: conversationID,
		RecipientID:    recipientID,
		Text:           text,
		ClientID:       clientID,
	}, &resp)
	if err != nil {
		return models.MessageResponse{}, 0, false, err
	}
	return resp.Message, resp.ConversationID, resp.NewConversation, nil
}

// MarkConversationRead acknowledges every unread message of a conversation.
// The body is the exact shape the server insists on.
func (a *API) MarkConversationRead(ctx context.Context, conversationID uint) error {
	path := fmt.Sprintf("/api/conversations/%d", conversationID)
	return a.do(ctx, http.MethodPatch, path, map[string]int{"unread_count": 0}, nil)
}

// MarkMessageRead acknowledges a single message.
func (a *API) MarkMessageRead(ctx context.Context, messageID uint) error {
	path := fmt.Sprintf("/api/messages/%d", messageID)
	return a.do(ctx, http.MethodPatch, path, map[string]bool{"was_read": true}, nil)
}

func (a *API) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %d %s (%s)", method, path, resp.StatusCode, apiErr.Error, apiErr.Code)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
