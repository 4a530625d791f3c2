package workers

import (
	"campus-chat/contract"
	"campus-chat/domain/chat"
	"campus-chat/domain/event"
	"campus-chat/mocks"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func insert(id chat.ConversationID) event.MessageInserted {
	return event.MessageInserted{Message: chat.Message{ID: "m1", ConversationID: id}}
}

func TestEventFanoutWorker_Fanout(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	first := mocks.NewMockEventSink(ctrl)
	second := mocks.NewMockEventSink(ctrl)

	fanoutWorker := NewEventFanoutWorker(log, mockRegistry, nil, time.Second)
	evt := insert("c1")

	// Given two sinks listening to the conversation
	mockRegistry.EXPECT().GetSinksForConversation(chat.ConversationID("c1")).
		Return([]contract.EventSink{first, second}).Times(1)

	// Then both are consumed, one after the other
	gomock.InOrder(
		first.EXPECT().Consume(gomock.Any(), evt).Return(nil),
		second.EXPECT().Consume(gomock.Any(), evt).Return(nil),
	)

	// When an event is handled by the worker
	fanoutWorker.Fanout(context.Background(), evt)
}

func TestEventFanoutWorker_SinkTimeout(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockIRegistry(ctrl)
	slow := mocks.NewMockEventSink(ctrl)
	fast := mocks.NewMockEventSink(ctrl)

	sinkTimeout := 20 * time.Millisecond
	fanoutWorker := NewEventFanoutWorker(log, mockRegistry, nil, sinkTimeout)

	mockRegistry.EXPECT().GetSinksForConversation(gomock.Any()).
		Return([]contract.EventSink{slow, fast}).Times(1)

	// Given a sink never reading
	slow.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, evt event.DomainEvent) error {
			<-ctx.Done()     // Waiting for timeout to trigger cancellation
			return ctx.Err() // Sending back "context deadline exceeded"
		}).
		Times(1)
	// Then the next sink still gets the event
	fast.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(fmt.Errorf("closed")).Times(1)

	start := time.Now()
	fanoutWorker.Fanout(context.Background(), insert("c1"))
	req.Less(time.Since(start), time.Second)
}

func TestEventFanoutWorker_Run(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)
	events := make(chan event.DomainEvent, 2)
	fanoutWorker := NewEventFanoutWorker(log, mockRegistry, events, time.Second)

	mockRegistry.EXPECT().GetSinksForConversation(gomock.Any()).Return([]contract.EventSink{sink}).Times(2)
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	// Given two queued events and a closed channel
	events <- insert("c1")
	events <- insert("c2")
	close(events)

	// When running, Then both are delivered and the worker returns at the end of the channel
	req.NoError(fanoutWorker.Run(context.Background()))
}
