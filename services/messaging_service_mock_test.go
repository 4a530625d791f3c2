package services

import (
	"campus-chat/domain/chat"
	"campus-chat/domain/event"
	"campus-chat/errors"
	"campus-chat/mocks"
	"campus-chat/repositories"
	"campus-chat/runtime"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type mockedMessaging struct {
	svc           *MessagingService
	conversations *mocks.MockIConversationRepository
	messages      *mocks.MockIMessageRepository
	events        chan event.DomainEvent
}

func newMockedMessaging(t *testing.T) mockedMessaging {
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	m := mockedMessaging{
		conversations: mocks.NewMockIConversationRepository(ctrl),
		messages:      mocks.NewMockIMessageRepository(ctrl),
		events:        make(chan event.DomainEvent, 10),
	}
	feed := runtime.NewFeed(log, runtime.NewRegistry(), m.events, 10)
	m.svc = NewMessagingService(log, mocks.NewMockIProfileRepository(ctrl), m.conversations, m.messages, feed, nil, 100)
	return m
}

func TestMessagingService_SendMessage_OutsiderStoresNothing(t *testing.T) {
	req := require.New(t)
	m := newMockedMessaging(t)

	// Given a conversation between alice and bob
	m.conversations.EXPECT().Participants(chat.ConversationID("c1")).Return([]chat.Identity{"alice", "bob"}, nil)
	m.messages.EXPECT().StoreMessage(gomock.Any()).Times(0)

	// When carol writes in it
	_, err := m.svc.SendMessage(context.Background(), "c1", "carol", "hello")

	// Then nothing is stored nor published
	req.ErrorIs(err, errors.ErrNotParticipant)
	req.Empty(m.events)
}

func TestMessagingService_SendMessage_UnknownConversation(t *testing.T) {
	req := require.New(t)
	m := newMockedMessaging(t)

	m.conversations.EXPECT().Participants(chat.ConversationID("missing")).Return(nil, errors.ErrNotFound)
	m.messages.EXPECT().StoreMessage(gomock.Any()).Times(0)

	_, err := m.svc.SendMessage(context.Background(), "missing", "alice", "hello")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestMessagingService_SendMessage_StoreFailureIsNotPublished(t *testing.T) {
	req := require.New(t)
	m := newMockedMessaging(t)

	// Given a storage failing on write
	m.conversations.EXPECT().Participants(chat.ConversationID("c1")).Return([]chat.Identity{"alice", "bob"}, nil)
	m.messages.EXPECT().StoreMessage(gomock.Any()).
		DoAndReturn(func(message repositories.DiskMessage) error {
			req.Equal("hello bob", message.Content)
			req.Equal(chat.Identity("alice"), message.Author)
			return fmt.Errorf("disk full")
		})

	// When alice sends
	_, err := m.svc.SendMessage(context.Background(), "c1", "alice", "  hello bob ")

	// Then the error surfaces and no insert is announced
	req.Error(err)
	req.Empty(m.events)
}

func TestMessagingService_ListMessages_SkipsMalformedRows(t *testing.T) {
	req := require.New(t)
	m := newMockedMessaging(t)

	// Given one valid row, one without sender and one without timestamp
	m.messages.EXPECT().GetMessages(chat.ConversationID("c1")).Return([]chat.Row{
		{"id": "m2", "conversation_id": "c1", "sender_id": "bob", "content": "later", "created_at": "2026-03-01T12:00:05Z"},
		{"id": "m1", "conversation_id": "c1", "content": "no sender", "created_at": "2026-03-01T12:00:00Z"},
		{"id": "m3", "conversation_id": "c1", "sender_id": "alice", "content": "no time"},
	}, nil)

	// When listing
	messages, err := m.svc.ListMessages(context.Background(), "c1")

	// Then only the valid row is returned
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(chat.MessageID("m2"), messages[0].ID)
	req.Equal("later", messages[0].Content)
}
