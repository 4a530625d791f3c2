package client

import (
	"campus-chat/domain/chat"
	"campus-chat/mocks"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"go.uber.org/mock/gomock"
)

const me = chat.Identity("u1")

type fixture struct {
	log           *slog.Logger
	ctrl          *gomock.Controller
	session       *mocks.MockSession
	directory     *mocks.MockDirectory
	conversations *mocks.MockConversationBackend
	messages      *mocks.MockMessageBackend
	realtime      *mocks.MockRealtime
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		log:           logs.GetLoggerFromLevel(slog.LevelDebug),
		ctrl:          ctrl,
		session:       mocks.NewMockSession(ctrl),
		directory:     mocks.NewMockDirectory(ctrl),
		conversations: mocks.NewMockConversationBackend(ctrl),
		messages:      mocks.NewMockMessageBackend(ctrl),
		realtime:      mocks.NewMockRealtime(ctrl),
	}
	f.session.EXPECT().CurrentIdentity().Return(me, nil).AnyTimes()
	return f
}

func (f *fixture) controller() *Controller {
	return NewController(f.log, ControllerConfig{
		Session:          f.session,
		Directory:        f.directory,
		Conversations:    f.conversations,
		Messages:         f.messages,
		Realtime:         f.realtime,
		NoticeBufferSize: 10,
	})
}

// subscription returns a live subscription whose events are fed by the returned channel.
// It expects to be closed exactly once.
func (f *fixture) subscription() (*mocks.MockSubscription, chan chat.Message) {
	events := make(chan chat.Message, 10)
	sub := mocks.NewMockSubscription(f.ctrl)
	sub.EXPECT().Events().Return((<-chan chat.Message)(events)).AnyTimes()
	sub.EXPECT().Close().Return(nil).Times(1)
	return sub, events
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func message(id string, conversation chat.ConversationID, sender chat.Identity, at time.Duration) chat.Message {
	return chat.Message{
		ID:             chat.MessageID(id),
		ConversationID: conversation,
		SenderID:       sender,
		Content:        "content " + id,
		CreatedAt:      t0.Add(at),
	}
}

func ids(messages []chat.Message) []chat.MessageID {
	out := make([]chat.MessageID, len(messages))
	for i, m := range messages {
		out[i] = m.ID
	}
	return out
}
