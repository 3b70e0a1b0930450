package models

// ReadState is the derived read-state of one conversation from a viewer's
// perspective. It is recomputed from the message set plus the two last-read
// pointers; any stored counter is a cache and never authoritative.
type ReadState struct {
	// UnreadCount is the number of messages sent by the other participant
	// that the viewer has not read.
	UnreadCount int
	// LatestMessage is the most recent message overall.
	LatestMessage *Message
	// OthersLatestReadMessage is the most recent message sent by the viewer
	// that the other participant has read ("seen up to here").
	OthersLatestReadMessage *Message
	// UsersLatestReadMessage is the mirror: the most recent message sent by
	// the other participant that the viewer has read.
	UsersLatestReadMessage *Message
}

// ComputeReadState derives the read-state view with a single newest-to-oldest
// scan over messages, which must be ordered oldest-first by (created_at, id).
//
// The scan is always a full pass: read flags can be flipped out of order by
// the bulk mark-read path, so unread messages are not assumed contiguous at
// the tail. The last-read pointers, when set, take precedence for the
// latest-read markers; the flag scan covers conversations predating the
// pointers.
func ComputeReadState(messages []Message, viewerID uint, viewerLastRead, otherLastRead *uint) ReadState {
	var rs ReadState
	if len(messages) == 0 {
		return rs
	}
	rs.LatestMessage = &messages[len(messages)-1]

	var flagOthersLatest, flagUsersLatest *Message
	for i := len(messages) - 1; i >= 0; i-- {
		m := &messages[i]
		if m.SenderID == viewerID {
			if m.WasRead && flagOthersLatest == nil {
				flagOthersLatest = m
			}
			continue
		}
		if !m.WasRead {
			rs.UnreadCount++
		} else if flagUsersLatest == nil {
			flagUsersLatest = m
		}
	}

	rs.OthersLatestReadMessage = resolveOrFallback(messages, otherLastRead, flagOthersLatest)
	rs.UsersLatestReadMessage = resolveOrFallback(messages, viewerLastRead, flagUsersLatest)
	return rs
}

func resolveOrFallback(messages []Message, pointer *uint, fallback *Message) *Message {
	if pointer == nil {
		return fallback
	}
	for i := range messages {
		if messages[i].ID == *pointer {
			return &messages[i]
		}
	}
	// Pointer not resolvable in this message set; trust the flag scan.
	return fallback
}
