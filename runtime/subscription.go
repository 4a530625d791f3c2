package runtime

import (
	"campus-chat/domain/chat"
	"campus-chat/domain/event"
	"campus-chat/errors"
	"context"
	"fmt"
	"sync"
)

// Subscription is a buffered, per-conversation event sink handed to one client.
// It is registered in the Registry as long as it is open.
type Subscription struct {
	id             string
	conversationID chat.ConversationID
	registry       *Registry

	mu     sync.RWMutex
	closed bool
	once   sync.Once
	done   chan struct{}
	events chan chat.Message
}

func newSubscription(id string, conversationID chat.ConversationID, registry *Registry, bufferSize int) *Subscription {
	return &Subscription{
		id:             id,
		conversationID: conversationID,
		registry:       registry,
		done:           make(chan struct{}),
		events:         make(chan chat.Message, bufferSize),
	}
}

func (s *Subscription) Events() <-chan chat.Message {
	return s.events
}

// Consume pushes an inserted message to the client, waiting at most until ctx is done.
// Holding the read lock while sending guarantees Close never closes events under a sender.
func (s *Subscription) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ErrSubscriptionClosed
	}

	switch evt := e.(type) {
	case event.MessageInserted:
		if evt.ConversationID() != s.conversationID {
			return nil
		}
		select {
		case s.events <- evt.Message:
			return nil
		case <-s.done:
			return errors.ErrSubscriptionClosed
		case <-ctx.Done():
			return fmt.Errorf("subscription %s: %w", s.id, ctx.Err())
		}
	default:
		return nil
	}
}

// Close unregisters the subscription and closes Events. Safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.registry.Unsubscribe(s.id, s.conversationID)

		s.mu.Lock()
		s.closed = true
		close(s.events)
		s.mu.Unlock()
	})
	return nil
}
