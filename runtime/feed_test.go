package runtime

import (
	"campus-chat/domain/chat"
	"campus-chat/domain/event"
	"campus-chat/errors"
	"campus-chat/runtime/workers"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func inserted(id chat.ConversationID, messageID chat.MessageID) chat.Message {
	return chat.Message{ID: messageID, ConversationID: id, SenderID: "u1", Content: "hi", CreatedAt: time.Now()}
}

func TestSubscription_Consume(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sub := newSubscription("s1", "c1", registry, 1)
	registry.Subscribe("s1", "c1", sub)
	ctx := context.Background()

	// An insert of the conversation is delivered
	req.NoError(sub.Consume(ctx, event.MessageInserted{Message: inserted("c1", "m1")}))
	req.Equal(chat.MessageID("m1"), (<-sub.Events()).ID)

	// Another conversation is ignored
	req.NoError(sub.Consume(ctx, event.MessageInserted{Message: inserted("c2", "m2")}))
	req.Empty(sub.Events())

	// A full buffer waits until the deadline
	req.NoError(sub.Consume(ctx, event.MessageInserted{Message: inserted("c1", "m3")}))
	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	req.ErrorIs(sub.Consume(timeout, event.MessageInserted{Message: inserted("c1", "m4")}), context.DeadlineExceeded)
}

func TestSubscription_Close(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sub := newSubscription("s1", "c1", registry, 1)
	registry.Subscribe("s1", "c1", sub)

	req.NoError(sub.Close())
	req.NoError(sub.Close())

	// Unregistered, events closed, further deliveries refused
	req.Equal(0, registry.Count("c1"))
	_, open := <-sub.Events()
	req.False(open)
	req.ErrorIs(sub.Consume(context.Background(), event.MessageInserted{Message: inserted("c1", "m1")}), errors.ErrSubscriptionClosed)
}

func TestSubscription_CloseWhileConsumerBlocked(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sub := newSubscription("s1", "c1", registry, 0)

	// Given a delivery stuck on an unread, unbuffered subscription
	result := make(chan error)
	go func() {
		result <- sub.Consume(context.Background(), event.MessageInserted{Message: inserted("c1", "m1")})
	}()
	time.Sleep(20 * time.Millisecond)

	// When the client closes it
	req.NoError(sub.Close())

	// Then the delivery gives up instead of sending on a closed channel
	req.ErrorIs(<-result, errors.ErrSubscriptionClosed)
}

func TestOrchestrator_PublishReachesSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond), NewRegistry(), 10, 10, 50*time.Millisecond)
	orchestrator.Start(context.Background())
	orchestrator.Start(context.Background())
	defer orchestrator.Stop()

	feed := orchestrator.Feed()
	ctx := context.Background()

	// Given two subscribers of c1 and one of c2
	alice, err := feed.SubscribeToNewMessages(ctx, "c1")
	req.NoError(err)
	defer func() { _ = alice.Close() }()
	bob, err := feed.SubscribeToNewMessages(ctx, "c1")
	req.NoError(err)
	defer func() { _ = bob.Close() }()
	carol, err := feed.SubscribeToNewMessages(ctx, "c2")
	req.NoError(err)
	defer func() { _ = carol.Close() }()

	// When two messages are published in c1
	req.NoError(feed.Publish(ctx, inserted("c1", "m1")))
	req.NoError(feed.Publish(ctx, inserted("c1", "m2")))

	// Then every subscriber of c1 sees them in order
	for _, sub := range []interface{ Events() <-chan chat.Message }{alice, bob} {
		for _, want := range []chat.MessageID{"m1", "m2"} {
			select {
			case got := <-sub.Events():
				req.Equal(want, got.ID)
			case <-time.After(time.Second):
				req.Fail("insert not delivered")
			}
		}
	}

	// And c2 hears nothing
	req.Never(func() bool { return len(carol.Events()) > 0 }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestFeed_PublishGivesUpWhenFull(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	feed := NewFeed(log, NewRegistry(), make(chan event.DomainEvent), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req.ErrorIs(feed.Publish(ctx, inserted("c1", "m1")), context.DeadlineExceeded)
}
