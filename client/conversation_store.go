package client

import (
	"campus-chat/contract"
	"campus-chat/domain/chat"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

// ConversationStore caches the conversation list of the current identity.
// It is the only owner of that list: readers get copies.
type ConversationStore struct {
	log     *slog.Logger
	session contract.Session
	backend contract.ConversationBackend
	group   singleflight.Group

	mu            sync.RWMutex
	conversations []chat.Conversation
}

func NewConversationStore(log *slog.Logger, session contract.Session, backend contract.ConversationBackend) *ConversationStore {
	return &ConversationStore{log: log, session: session, backend: backend}
}

// LoadConversations replaces the cached list with the backend's, most recent activity first.
// A failure degrades to an empty list and is only logged.
func (s *ConversationStore) LoadConversations(ctx context.Context) []chat.Conversation {
	conversations, err := s.fetch(ctx)
	if err != nil {
		s.log.Error("Unable to load conversations", "error", err)
		conversations = nil
	}
	chat.SortByActivity(conversations)

	// Last response to resolve wins
	s.mu.Lock()
	s.conversations = conversations
	s.mu.Unlock()
	return slices.Clone(conversations)
}

func (s *ConversationStore) fetch(ctx context.Context) ([]chat.Conversation, error) {
	identity, err := s.session.CurrentIdentity()
	if err != nil {
		return nil, err
	}
	return s.backend.ListConversations(ctx, identity)
}

// Refresh reloads the list, safe to call from any goroutine.
func (s *ConversationStore) Refresh(ctx context.Context) []chat.Conversation {
	return s.LoadConversations(ctx)
}

// CreateOrGetConversation returns the conversation shared with other, creating it if needed.
// Concurrent calls for the same pair share a single backend call, which is not cancelled
// when one caller gives up. The cached list is left untouched.
func (s *ConversationStore) CreateOrGetConversation(ctx context.Context, other chat.Identity) (chat.ConversationID, error) {
	identity, err := s.session.CurrentIdentity()
	if err != nil {
		return "", unavailable(err)
	}
	shared := context.WithoutCancel(ctx)
	v, err, coalesced := s.group.Do(pairKey(identity, other), func() (any, error) {
		return s.backend.GetOrCreateConversation(shared, identity, other)
	})
	if err != nil {
		return "", collaboratorError(err)
	}
	if coalesced {
		s.log.Debug("Coalesced conversation creation", "identity", identity, "other", other)
	}
	return v.(chat.ConversationID), nil
}

// Conversations returns a copy of the cached list.
func (s *ConversationStore) Conversations() []chat.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.conversations)
}

func (s *ConversationStore) Lookup(id chat.ConversationID) (chat.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Find(s.conversations, func(c chat.Conversation) bool { return c.ID == id })
}

// MarkRead zeroes the cached unread count of the conversation.
func (s *ConversationStore) MarkRead(id chat.ConversationID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.IndexFunc(s.conversations, func(c chat.Conversation) bool { return c.ID == id }); i >= 0 {
		s.conversations[i].UnreadCount = 0
	}
}

func pairKey(a, b chat.Identity) string {
	if b < a {
		a, b = b, a
	}
	return string(a) + "|" + string(b)
}
