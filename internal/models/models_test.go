package models

import (
	"testing"
	"time"
)

func TestUserToResponse(t *testing.T) {
	user := &User{
		ID:       1,
		Username: "john_doe",
		Email:    "john@example.com",
		PhotoURL: "https://example.com/photo.jpg",
	}

	response := user.ToResponse(true)

	if response.ID != user.ID {
		t.Errorf("ToResponse ID = %d, want %d", response.ID, user.ID)
	}
	if response.Username != user.Username {
		t.Errorf("ToResponse Username = %q, want %q", response.Username, user.Username)
	}
	if response.PhotoURL != user.PhotoURL {
		t.Errorf("ToResponse PhotoURL = %q, want %q", response.PhotoURL, user.PhotoURL)
	}
	if !response.Online {
		t.Errorf("ToResponse Online = false, want true")
	}

	if user.ToResponse(false).Online {
		t.Errorf("ToResponse Online = true, want false")
	}
}

func TestMessageToResponse(t *testing.T) {
	createdAt := time.Now()
	message := &Message{
		ID:             1,
		CreatedAt:      createdAt,
		ClientID:       "client-123",
		ConversationID: 7,
		SenderID:       2,
		Text:           "Hello, world!",
		WasRead:        true,
	}

	response := message.ToResponse()

	if response.ID != message.ID {
		t.Errorf("ToResponse ID = %d, want %d", response.ID, message.ID)
	}
	if response.ClientID != message.ClientID {
		t.Errorf("ToResponse ClientID = %q, want %q", response.ClientID, message.ClientID)
	}
	if response.ConversationID != message.ConversationID {
		t.Errorf("ToResponse ConversationID = %d, want %d", response.ConversationID, message.ConversationID)
	}
	if response.SenderID != message.SenderID {
		t.Errorf("ToResponse SenderID = %d, want %d", response.SenderID, message.SenderID)
	}
	if response.Text != message.Text {
		t.Errorf("ToResponse Text = %q, want %q", response.Text, message.Text)
	}
	if !response.WasRead {
		t.Errorf("ToResponse WasRead = false, want true")
	}
	if !response.CreatedAt.Equal(createdAt) {
		t.Errorf("ToResponse CreatedAt = %v, want %v", response.CreatedAt, createdAt)
	}
}

func TestConversationAccessorsAreSymmetric(t *testing.T) {
	read1 := uint(10)
	read2 := uint(20)
	conv := &Conversation{
		ID:              1,
		User1ID:         1,
		User2ID:         2,
		User1LastReadID: &read1,
		User2LastReadID: &read2,
	}

	tests := []struct {
		name          string
		userID        uint
		wantOther     uint
		wantOwnRead   uint
		wantOtherRead uint
	}{
		{"slot one perspective", 1, 2, read1, read2},
		{"slot two perspective", 2, 1, read2, read1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !conv.HasParticipant(tt.userID) {
				t.Fatalf("HasParticipant(%d) = false", tt.userID)
			}
			if got := conv.OtherParticipantID(tt.userID); got != tt.wantOther {
				t.Errorf("OtherParticipantID(%d) = %d, want %d", tt.userID, got, tt.wantOther)
			}
			if got := conv.LastReadID(tt.userID); got == nil || *got != tt.wantOwnRead {
				t.Errorf("LastReadID(%d) = %v, want %d", tt.userID, got, tt.wantOwnRead)
			}
			if got := conv.OtherLastReadID(tt.userID); got == nil || *got != tt.wantOtherRead {
				t.Errorf("OtherLastReadID(%d) = %v, want %d", tt.userID, got, tt.wantOtherRead)
			}
		})
	}

	if conv.HasParticipant(3) {
		t.Errorf("HasParticipant(3) = true for non-participant")
	}
}
