package workers

import (
	"campus-chat/contract"
	"campus-chat/domain/event"
	"context"
	"log/slog"
	"time"
)

// EventFanoutWorker delivers feed events to every sink subscribed to the event's conversation.
//
// Delivery is best effort: one sink at a time, in registry order, each bounded by sinkTimeout.
// A slow or closed sink loses the event, the others still get it. Events are liveness hints
// for clients, which reload from storage, so a lost event only delays a refresh.
type EventFanoutWorker struct {
	log         *slog.Logger
	registry    contract.IRegistry
	events      <-chan event.DomainEvent
	sinkTimeout time.Duration
}

func NewEventFanoutWorker(log *slog.Logger, registry contract.IRegistry,
	events <-chan event.DomainEvent, sinkTimeout time.Duration) *EventFanoutWorker {
	return &EventFanoutWorker{log: log, registry: registry, events: events, sinkTimeout: sinkTimeout}
}

func (w *EventFanoutWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel closed, stopping fanout")
				return nil
			}
			w.Fanout(ctx, evt)
		}
	}
}

// Fanout sends one event to the sinks of its conversation.
func (w *EventFanoutWorker) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.registry.GetSinksForConversation(evt.ConversationID()) {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Warn("Sink did not consume event",
				"conversation_id", evt.ConversationID(),
				"error", err)
		}
		cancel()
	}
}
