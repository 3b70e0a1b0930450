package models

import (
	"testing"
	"time"
)

func msg(id uint, senderID uint, wasRead bool, at time.Time) Message {
	return Message{
		ID:        id,
		SenderID:  senderID,
		WasRead:   wasRead,
		CreatedAt: at,
	}
}

func TestComputeReadStateEmpty(t *testing.T) {
	rs := ComputeReadState(nil, 1, nil, nil)
	if rs.UnreadCount != 0 {
		t.Errorf("UnreadCount = %d, want 0", rs.UnreadCount)
	}
	if rs.LatestMessage != nil || rs.OthersLatestReadMessage != nil || rs.UsersLatestReadMessage != nil {
		t.Errorf("expected all markers nil for empty conversation")
	}
}

func TestComputeReadStateUnreadCount(t *testing.T) {
	base := time.Now()
	viewer := uint(1)
	other := uint(2)

	tests := []struct {
		name       string
		messages   []Message
		wantUnread int
	}{
		{
			name: "counts only other-sent unread",
			messages: []Message{
				msg(1, other, true, base),
				msg(2, viewer, false, base.Add(time.Second)),
				msg(3, other, false, base.Add(2*time.Second)),
				msg(4, other, false, base.Add(3*time.Second)),
			},
			wantUnread: 2,
		},
		{
			name: "viewer's own unread messages never count",
			messages: []Message{
				msg(1, viewer, false, base),
				msg(2, viewer, false, base.Add(time.Second)),
			},
			wantUnread: 0,
		},
		{
			name: "unread not contiguous at the tail",
			messages: []Message{
				msg(1, other, false, base),
				msg(2, other, true, base.Add(time.Second)),
				msg(3, other, false, base.Add(2*time.Second)),
			},
			wantUnread: 2,
		},
		{
			name: "all read",
			messages: []Message{
				msg(1, other, true, base),
				msg(2, other, true, base.Add(time.Second)),
			},
			wantUnread: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := ComputeReadState(tt.messages, viewer, nil, nil)
			if rs.UnreadCount != tt.wantUnread {
				t.Errorf("UnreadCount = %d, want %d", rs.UnreadCount, tt.wantUnread)
			}
		})
	}
}

func TestComputeReadStateLatestMessage(t *testing.T) {
	base := time.Now()
	messages := []Message{
		msg(1, 2, true, base),
		msg(2, 1, false, base.Add(time.Second)),
		msg(3, 2, false, base.Add(2*time.Second)),
	}

	rs := ComputeReadState(messages, 1, nil, nil)
	if rs.LatestMessage == nil || rs.LatestMessage.ID != 3 {
		t.Fatalf("LatestMessage = %v, want message 3", rs.LatestMessage)
	}
}

func TestComputeReadStateFlagScanMarkers(t *testing.T) {
	base := time.Now()
	viewer := uint(1)
	other := uint(2)

	// No pointers set: markers come from the flag scan alone.
	messages := []Message{
		msg(1, viewer, true, base),                    // viewer-sent, read by other
		msg(2, other, true, base.Add(time.Second)),    // other-sent, read by viewer
		msg(3, viewer, true, base.Add(2*time.Second)), // viewer-sent, read by other
		msg(4, other, false, base.Add(3*time.Second)),
		msg(5, viewer, false, base.Add(4*time.Second)),
	}

	rs := ComputeReadState(messages, viewer, nil, nil)
	if rs.OthersLatestReadMessage == nil || rs.OthersLatestReadMessage.ID != 3 {
		t.Errorf("OthersLatestReadMessage = %v, want message 3", rs.OthersLatestReadMessage)
	}
	if rs.UsersLatestReadMessage == nil || rs.UsersLatestReadMessage.ID != 2 {
		t.Errorf("UsersLatestReadMessage = %v, want message 2", rs.UsersLatestReadMessage)
	}
}

func TestComputeReadStatePointerPrecedence(t *testing.T) {
	base := time.Now()
	viewer := uint(1)
	other := uint(2)

	messages := []Message{
		msg(1, viewer, true, base),
		msg(2, other, true, base.Add(time.Second)),
		msg(3, viewer, true, base.Add(2*time.Second)),
	}

	// Pointers resolve inside the message set and win over the flag scan.
	otherLastRead := uint(1)
	viewerLastRead := uint(2)
	rs := ComputeReadState(messages, viewer, &viewerLastRead, &otherLastRead)
	if rs.OthersLatestReadMessage == nil || rs.OthersLatestReadMessage.ID != 1 {
		t.Errorf("OthersLatestReadMessage = %v, want message 1 (pointer)", rs.OthersLatestReadMessage)
	}
	if rs.UsersLatestReadMessage == nil || rs.UsersLatestReadMessage.ID != 2 {
		t.Errorf("UsersLatestReadMessage = %v, want message 2 (pointer)", rs.UsersLatestReadMessage)
	}
}

func TestComputeReadStatePointerFallback(t *testing.T) {
	base := time.Now()
	viewer := uint(1)
	other := uint(2)

	messages := []Message{
		msg(5, viewer, true, base),
		msg(6, other, true, base.Add(time.Second)),
	}

	// A pointer referencing a message outside the loaded set falls back to
	// the flag scan instead of vanishing.
	stale := uint(999)
	rs := ComputeReadState(messages, viewer, &stale, &stale)
	if rs.OthersLatestReadMessage == nil || rs.OthersLatestReadMessage.ID != 5 {
		t.Errorf("OthersLatestReadMessage = %v, want message 5 (fallback)", rs.OthersLatestReadMessage)
	}
	if rs.UsersLatestReadMessage == nil || rs.UsersLatestReadMessage.ID != 6 {
		t.Errorf("UsersLatestReadMessage = %v, want message 6 (fallback)", rs.UsersLatestReadMessage)
	}
}

func TestComputeReadStateSymmetry(t *testing.T) {
	base := time.Now()
	messages := []Message{
		msg(1, 1, true, base),
		msg(2, 2, false, base.Add(time.Second)),
	}

	rs1 := ComputeReadState(messages, 1, nil, nil)
	rs2 := ComputeReadState(messages, 2, nil, nil)

	if rs1.UnreadCount != 1 {
		t.Errorf("viewer 1 UnreadCount = %d, want 1", rs1.UnreadCount)
	}
	if rs2.UnreadCount != 0 {
		t.Errorf("viewer 2 UnreadCount = %d, want 0", rs2.UnreadCount)
	}
	// Message 1 (sent by user 1, read) is user 1's "seen up to here" marker
	// and user 2's latest-read marker.
	if rs1.OthersLatestReadMessage == nil || rs1.OthersLatestReadMessage.ID != 1 {
		t.Errorf("viewer 1 OthersLatestReadMessage = %v, want message 1", rs1.OthersLatestReadMessage)
	}
	if rs2.UsersLatestReadMessage == nil || rs2.UsersLatestReadMessage.ID != 1 {
		t.Errorf("viewer 2 UsersLatestReadMessage = %v, want message 1", rs2.UsersLatestReadMessage)
	}
}
