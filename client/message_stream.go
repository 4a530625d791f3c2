package client

import (
	"campus-chat/contract"
	"campus-chat/domain/chat"
	"context"
	"log/slog"
	"slices"
	"sync"
)

// MessageStream owns the ordered message sequence of the active conversation.
//
// Every load takes a ticket. A response is applied only if its conversation is still
// the active one and no newer load has been applied in the meantime.
type MessageStream struct {
	log     *slog.Logger
	backend contract.MessageBackend

	mu       sync.RWMutex
	active   chat.ConversationID
	state    chat.SelectionState
	messages []chat.Message
	loaded   bool
	issued   uint64
	applied  uint64
}

func NewMessageStream(log *slog.Logger, backend contract.MessageBackend) *MessageStream {
	return &MessageStream{log: log, backend: backend, state: chat.Unselected}
}

// Switch makes id the active conversation and discards the previous sequence.
// Switching to the already active id keeps the sequence.
func (s *MessageStream) Switch(id chat.ConversationID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switchLocked(id)
}

func (s *MessageStream) switchLocked(id chat.ConversationID) {
	if s.active == id {
		return
	}
	s.active = id
	s.messages = nil
	s.loaded = false
	if id == "" {
		s.state = chat.Unselected
	} else {
		s.state = chat.Loading
	}
}

// Reset drops the selection, any in-flight load is discarded when it resolves.
func (s *MessageStream) Reset() {
	s.Switch("")
}

// LoadHistory replaces the sequence with the full history of id, switching to it first
// if needed. It reports whether the history of id is loaded once it returns, by this
// response or by a newer one that resolved first. A failed load leaves the stream Empty.
func (s *MessageStream) LoadHistory(ctx context.Context, id chat.ConversationID) bool {
	return s.load(ctx, id, true)
}

// Reload refreshes the sequence only if id is still the active conversation.
func (s *MessageStream) Reload(ctx context.Context, id chat.ConversationID) bool {
	return s.load(ctx, id, false)
}

func (s *MessageStream) load(ctx context.Context, id chat.ConversationID, switchTo bool) bool {
	s.mu.Lock()
	if switchTo {
		s.switchLocked(id)
	} else if s.active != id {
		s.mu.Unlock()
		return false
	}
	s.issued++
	ticket := s.issued
	s.state = chat.Loading
	s.mu.Unlock()

	messages, err := s.backend.ListMessages(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != id || ticket <= s.applied {
		s.log.Debug("Dropping stale history", "conversation_id", id, "ticket", ticket)
		return s.active == id && s.loaded
	}
	s.applied = ticket
	if err != nil {
		s.log.Error("Unable to load history", "conversation_id", id, "error", err)
		s.messages = nil
		s.loaded = false
		s.state = chat.Empty
		return false
	}
	s.loaded = true

	sorted := slices.Clone(messages)
	chat.SortMessages(sorted)
	s.messages = sorted
	if len(sorted) == 0 {
		s.state = chat.Empty
	} else {
		s.state = chat.Ready
	}
	return true
}

// Messages returns a copy of the sequence, ordered by (CreatedAt, ID).
func (s *MessageStream) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

func (s *MessageStream) State() chat.SelectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *MessageStream) Active() chat.ConversationID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}
