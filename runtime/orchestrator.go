package runtime

import (
	"campus-chat/contract"
	"campus-chat/domain/event"
	"campus-chat/runtime/workers"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Orchestrator owns the feed pipeline: the event channel, the registry
// and the supervised fanout worker draining the channel.
type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	supervisor contract.ISupervisor
	registry   *Registry
	events     chan event.DomainEvent
	feed       *Feed
	fanout     contract.Worker
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry *Registry,
	bufferSize, subscriptionBufferSize int, sinkTimeout time.Duration) *Orchestrator {
	events := make(chan event.DomainEvent, bufferSize)
	return &Orchestrator{
		log:        log,
		supervisor: supervisor,
		registry:   registry,
		events:     events,
		feed:       NewFeed(log, registry, events, subscriptionBufferSize),
		fanout:     workers.NewEventFanoutWorker(log, registry, events, sinkTimeout),
	}
}

// Feed is both the publisher used by the messaging service and the contract.Realtime
// handed to clients.
func (o *Orchestrator) Feed() *Feed {
	return o.feed
}

// Start launches the supervisor in the background and returns immediately.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done != nil {
		o.log.Debug("Orchestrator already started")
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})
	o.supervisor.Add(o.fanout)

	done := o.done
	go func() {
		defer close(done)
		o.log.Info("Starting realtime feed")
		o.supervisor.Run(runCtx)
	}()
}

// Stop cancels the workers and waits for them to exit.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	o.log.Info("Realtime feed stopped")
}
