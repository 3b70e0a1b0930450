// Package client holds the client-side conversation synchronizer: a local
// cache of conversations kept eventually consistent with the server across
// three unordered input streams — REST snapshots, locally-initiated sends,
// and push events from the real-time transport.
package client

import (
	"log"
	"sort"
	"sync"

	"github.com/Dylan-Floyd/effe81/internal/models"
	"github.com/Dylan-Floyd/effe81/internal/presence"
)

// AckFunc performs the mark-conversation-read round trip. The store invokes
// it fire-and-forget: failures are logged and dropped, because the next full
// snapshot re-derives correct state.
type AckFunc func(conversationID uint) error

// Conversation is one entry of the local cache. An entry is provisional
// (no server ID, no messages) while it only exists to show a "start chatting
// with X" placeholder; it is discarded, never merged, once a real
// conversation with the same counterpart arrives.
type Conversation struct {
	ID                      uint
	OtherUser               models.UserResponse
	Messages                []models.Message
	UnreadCount             int
	LatestMessage           *models.Message
	OthersLatestReadMessage *models.Message
	UsersLatestReadMessage  *models.Message

	Provisional bool

	// Last-read pointers mirroring the server's conversation record:
	// ownLastRead advances on local acknowledgement, otherLastRead on
	// incoming read receipts. Both only ever move forward.
	ownLastRead   *uint
	otherLastRead *uint

	seen       map[uint]struct{}
	seenClient map[string]struct{}
}

// Store is the synchronizer. Every merge entry point is idempotent and
// atomic under one mutex, so the final derived view is independent of the
// interleaving and duplication of events.
type Store struct {
	mu     sync.Mutex
	selfID uint
	ack    AckFunc

	conversations map[uint]*Conversation // persisted, by server id
	provisional   map[uint]*Conversation // by counterpart user id

	// Out-of-order tolerance: read receipts that arrive before the message
	// or conversation they refer to are buffered here and applied when the
	// missing piece shows up.
	readAhead     map[uint]struct{} // message IDs reported read
	pendingLatest map[uint]uint     // conversation id -> latest read id

	activeOther uint // counterpart user id of the open conversation; 0 = none
}

func NewStore(selfID uint, ack AckFunc) *Store {
	return &Store{
		selfID:        selfID,
		ack:           ack,
		conversations: make(map[uint]*Conversation),
		provisional:   make(map[uint]*Conversation),
		readAhead:     make(map[uint]struct{}),
		pendingLatest: make(map[uint]uint),
	}
}

// ApplySnapshot replaces the persisted set with a full REST snapshot, the
// authoritative recovery path for missed pushes. Buffered read-ahead state
// survives the replacement and is re-applied on top, so a receipt delivered
// just before the snapshot was assembled is not lost.
func (s *Store) ApplySnapshot(summaries []models.ConversationSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = make(map[uint]*Conversation, len(summaries))
	for i := range summaries {
		conv := s.fromSummary(&summaries[i])
		s.conversations[conv.ID] = conv
		delete(s.provisional, conv.OtherUser.ID)
		s.applyBuffered(conv)
		s.recompute(conv)
	}
}

// AddSearchResults creates provisional placeholder entries for searched
// users who have no conversation with the local user yet.
func (s *Store) AddSearchResults(users []models.UserResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[uint]struct{}, len(s.conversations))
	for _, conv := range s.conversations {
		known[conv.OtherUser.ID] = struct{}{}
	}

	for _, user := range users {
		if user.ID == s.selfID {
			continue
		}
		if _, exists := known[user.ID]; exists {
			continue
		}
		if _, exists := s.provisional[user.ID]; exists {
			continue
		}
		s.provisional[user.ID] = &Conversation{
			OtherUser:   user,
			Provisional: true,
			seen:        make(map[uint]struct{}),
			seenClient:  make(map[string]struct{}),
		}
	}
}

// ClearSearch discards all provisional entries.
func (s *Store) ClearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provisional = make(map[uint]*Conversation)
}

// ApplyNewMessage folds in a new-message push. An unknown conversation ID
// with a sender payload synthesizes a persisted entry — the only path that
// creates one without an initiating REST call ("someone messaged me first").
// Duplicate deliveries are dropped by message identity, never by arrival
// order. A message from the counterpart of the currently open conversation
// is optimistically marked read and acknowledged fire-and-forget.
func (s *Store) ApplyNewMessage(p presence.NewMessagePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := messageFromResponse(p.Message)

	conv, exists := s.conversations[msg.ConversationID]
	if !exists {
		if p.Sender == nil {
			// Nothing to synthesize the entry from; the next full
			// snapshot repairs this.
			return
		}
		conv = &Conversation{
			ID:         msg.ConversationID,
			OtherUser:  *p.Sender,
			seen:       make(map[uint]struct{}),
			seenClient: make(map[string]struct{}),
		}
		s.conversations[conv.ID] = conv
		delete(s.provisional, p.Sender.ID)
	}

	if !s.appendMessage(conv, msg) {
		return
	}

	if msg.SenderID != s.selfID && s.activeOther == conv.OtherUser.ID {
		s.markLocallyRead(conv)
		s.fireAck(conv.ID)
	}
	s.recompute(conv)
}

// RecordSent folds in the local user's own send (the POST response),
// promoting a provisional entry to persisted when this was the first
// message of the conversation.
func (s *Store) RecordSent(otherUserID uint, conversationID uint, message models.MessageResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.conversations[conversationID]
	if !exists {
		if prov, ok := s.provisional[otherUserID]; ok {
			conv = prov
			conv.Provisional = false
			delete(s.provisional, otherUserID)
		} else {
			conv = &Conversation{
				OtherUser:  models.UserResponse{ID: otherUserID},
				seen:       make(map[uint]struct{}),
				seenClient: make(map[string]struct{}),
			}
		}
		conv.ID = conversationID
		s.conversations[conversationID] = conv
		s.applyBuffered(conv)
	}

	if s.appendMessage(conv, messageFromResponse(message)) {
		s.recompute(conv)
	}
}

// ApplyReadReceipt folds in a read-receipt push. Receipts target the
// sender of the referenced messages, so they flip flags on the local
// user's own messages and advance the counterpart's last-read pointer.
// Receipts for messages or conversations not seen yet are buffered.
func (s *Store) ApplyReadReceipt(p presence.ReadReceiptPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := receiptIDs(p)
	latest := uint(0)
	if p.LatestReadID != nil {
		latest = *p.LatestReadID
	}
	for _, id := range ids {
		if id > latest {
			latest = id
		}
	}

	conv, exists := s.conversations[p.ConversationID]
	if !exists {
		for _, id := range ids {
			s.readAhead[id] = struct{}{}
		}
		if latest > s.pendingLatest[p.ConversationID] {
			s.pendingLatest[p.ConversationID] = latest
		}
		return
	}

	for _, id := range ids {
		if !flipRead(conv, id) {
			s.readAhead[id] = struct{}{}
		}
	}
	advance(&conv.otherLastRead, latest)
	s.recompute(conv)
}

// ApplyPresence flips the counterpart's online flag. It never touches
// message data.
func (s *Store) ApplyPresence(userID uint, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, conv := range s.conversations {
		if conv.OtherUser.ID == userID {
			conv.OtherUser.Online = online
		}
	}
	for _, conv := range s.provisional {
		if conv.OtherUser.ID == userID {
			conv.OtherUser.Online = online
		}
	}
}

// SetActive opens the conversation with the given counterpart. Its unread
// count drops to zero immediately, optimistically ahead of server
// confirmation, and the acknowledgement round trip is fired without being
// awaited.
func (s *Store) SetActive(otherUserID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeOther = otherUserID
	for _, conv := range s.conversations {
		if conv.OtherUser.ID != otherUserID {
			continue
		}
		if conv.UnreadCount > 0 {
			s.markLocallyRead(conv)
			s.recompute(conv)
			s.fireAck(conv.ID)
		}
		return
	}
}

// ClearActive closes the open conversation.
func (s *Store) ClearActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeOther = 0
}

// Conversations returns the current cache ordered by latest activity
// descending, provisional placeholders last.
func (s *Store) Conversations() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Conversation, 0, len(s.conversations)+len(s.provisional))
	for _, conv := range s.conversations {
		out = append(out, *conv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LatestMessage, out[j].LatestMessage
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

	placeholders := make([]Conversation, 0, len(s.provisional))
	for _, conv := range s.provisional {
		placeholders = append(placeholders, *conv)
	}
	sort.SliceStable(placeholders, func(i, j int) bool {
		return placeholders[i].OtherUser.Username < placeholders[j].OtherUser.Username
	})

	return append(out, placeholders...)
}

// Get returns a copy of the persisted entry for a conversation ID.
func (s *Store) Get(conversationID uint) (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return Conversation{}, false
	}
	return *conv, true
}

// internals — callers hold s.mu.

func (s *Store) fromSummary(summary *models.ConversationSummary) *Conversation {
	conv := &Conversation{
		ID:         summary.ID,
		OtherUser:  summary.OtherUser,
		Messages:   make([]models.Message, 0, len(summary.Messages)),
		seen:       make(map[uint]struct{}),
		seenClient: make(map[string]struct{}),
	}
	for _, mr := range summary.Messages {
		msg := messageFromResponse(mr)
		conv.Messages = append(conv.Messages, msg)
		conv.seen[msg.ID] = struct{}{}
		if msg.ClientID != "" {
			conv.seenClient[msg.ClientID] = struct{}{}
		}
	}
	if summary.UsersLatestReadMessage != nil {
		advance(&conv.ownLastRead, summary.UsersLatestReadMessage.ID)
	}
	if summary.OthersLatestReadMessage != nil {
		advance(&conv.otherLastRead, summary.OthersLatestReadMessage.ID)
	}
	return conv
}

// appendMessage inserts msg in (created_at, id) order, reporting false for
// duplicates.
func (s *Store) appendMessage(conv *Conversation, msg models.Message) bool {
	if _, dup := conv.seen[msg.ID]; dup {
		return false
	}
	if msg.ClientID != "" {
		if _, dup := conv.seenClient[msg.ClientID]; dup {
			return false
		}
		conv.seenClient[msg.ClientID] = struct{}{}
	}
	conv.seen[msg.ID] = struct{}{}

	if _, ok := s.readAhead[msg.ID]; ok {
		msg.WasRead = true
		delete(s.readAhead, msg.ID)
	}

	pos := sort.Search(len(conv.Messages), func(i int) bool {
		m := &conv.Messages[i]
		if !m.CreatedAt.Equal(msg.CreatedAt) {
			return m.CreatedAt.After(msg.CreatedAt)
		}
		return m.ID > msg.ID
	})
	conv.Messages = append(conv.Messages, models.Message{})
	copy(conv.Messages[pos+1:], conv.Messages[pos:])
	conv.Messages[pos] = msg
	return true
}

// applyBuffered replays read-ahead state onto a newly materialized entry.
func (s *Store) applyBuffered(conv *Conversation) {
	for i := range conv.Messages {
		if _, ok := s.readAhead[conv.Messages[i].ID]; ok {
			conv.Messages[i].WasRead = true
			delete(s.readAhead, conv.Messages[i].ID)
		}
	}
	if latest, ok := s.pendingLatest[conv.ID]; ok {
		advance(&conv.otherLastRead, latest)
		delete(s.pendingLatest, conv.ID)
	}
}

// markLocallyRead flips every unread counterpart message, mirroring the
// server's bulk transition before it is confirmed.
func (s *Store) markLocallyRead(conv *Conversation) {
	for i := range conv.Messages {
		m := &conv.Messages[i]
		if m.SenderID != s.selfID {
			if !m.WasRead {
				m.WasRead = true
			}
			advance(&conv.ownLastRead, m.ID)
		}
	}
}

func (s *Store) recompute(conv *Conversation) {
	rs := models.ComputeReadState(conv.Messages, s.selfID, conv.ownLastRead, conv.otherLastRead)
	conv.UnreadCount = rs.UnreadCount
	conv.LatestMessage = rs.LatestMessage
	conv.OthersLatestReadMessage = rs.OthersLatestReadMessage
	conv.UsersLatestReadMessage = rs.UsersLatestReadMessage
}

func (s *Store) fireAck(conversationID uint) {
	if s.ack == nil {
		return
	}
	ack := s.ack
	go func() {
		// Fire-and-forget: a failed acknowledgement is repaired by the
		// next full snapshot.
		if err := ack(conversationID); err != nil {
			log.Printf("mark-read acknowledgement failed for conversation %d: %v", conversationID, err)
		}
	}()
}

func flipRead(conv *Conversation, messageID uint) bool {
	for i := range conv.Messages {
		if conv.Messages[i].ID == messageID {
			conv.Messages[i].WasRead = true
			return true
		}
	}
	return false
}

func advance(pointer **uint, messageID uint) {
	if messageID == 0 {
		return
	}
	if *pointer == nil || **pointer < messageID {
		id := messageID
		*pointer = &id
	}
}

func receiptIDs(p presence.ReadReceiptPayload) []uint {
	ids := make([]uint, 0, len(p.ReadMessageIDs)+1)
	ids = append(ids, p.ReadMessageIDs...)
	if p.ReadMessageID != nil {
		ids = append(ids, *p.ReadMessageID)
	}
	return ids
}

func messageFromResponse(mr models.MessageResponse) models.Message {
	return models.Message{
		ID:             mr.ID,
		ClientID:       mr.ClientID,
		ConversationID: mr.ConversationID,
		SenderID:       mr.SenderID,
		Text:           mr.Text,
		WasRead:        mr.WasRead,
		CreatedAt:      mr.CreatedAt,
	}
}
