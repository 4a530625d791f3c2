// Package runtime carries the in-process realtime feed: publishers push inserted messages,
// a supervised fanout worker delivers them to every subscription of the conversation.
package runtime

import (
	"campus-chat/contract"
	"campus-chat/domain/chat"
	"campus-chat/domain/event"
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type Feed struct {
	log                    *slog.Logger
	registry               *Registry
	events                 chan event.DomainEvent
	subscriptionBufferSize int
}

func NewFeed(log *slog.Logger, registry *Registry, events chan event.DomainEvent, subscriptionBufferSize int) *Feed {
	return &Feed{
		log:                    log,
		registry:               registry,
		events:                 events,
		subscriptionBufferSize: subscriptionBufferSize,
	}
}

// Publish hands an inserted message to the fanout worker.
// It blocks while the event channel is full, until ctx is done.
func (f *Feed) Publish(ctx context.Context, message chat.Message) error {
	select {
	case f.events <- event.MessageInserted{Message: message}:
		return nil
	case <-ctx.Done():
		f.log.Warn("Insert event not published",
			"conversation_id", message.ConversationID,
			"message_id", message.ID,
			"error", ctx.Err())
		return ctx.Err()
	}
}

// SubscribeToNewMessages registers a new subscription scoped to one conversation.
func (f *Feed) SubscribeToNewMessages(_ context.Context, id chat.ConversationID) (contract.Subscription, error) {
	sub := newSubscription(uuid.NewString(), id, f.registry, f.subscriptionBufferSize)
	f.registry.Subscribe(sub.id, id, sub)
	f.log.Debug("Subscription opened", "conversation_id", id, "subscription_id", sub.id)
	return sub, nil
}
