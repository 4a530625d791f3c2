package client

import (
	"campus-chat/contract"
	"campus-chat/domain/chat"
	"campus-chat/errors"
	"context"
	"log/slog"
	"sync"
)

const previewRunes = 80

// RealtimeBridge keeps at most one live subscription, scoped to the active conversation.
// Every insert it observes reloads the MessageStream, inserts written by someone else
// are also reported on Notices.
type RealtimeBridge struct {
	log      *slog.Logger
	session  contract.Session
	realtime contract.Realtime
	stream   *MessageStream
	notices  chan chat.Notice

	mu     sync.Mutex
	scope  chat.ConversationID
	sub    contract.Subscription
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

func NewRealtimeBridge(log *slog.Logger, session contract.Session, realtime contract.Realtime,
	stream *MessageStream, noticeBufferSize int) *RealtimeBridge {
	return &RealtimeBridge{
		log:      log,
		session:  session,
		realtime: realtime,
		stream:   stream,
		notices:  make(chan chat.Notice, noticeBufferSize),
	}
}

// Notices is closed once Close returns.
func (b *RealtimeBridge) Notices() <-chan chat.Notice {
	return b.notices
}

// Attach releases the current subscription, then subscribes to id.
func (b *RealtimeBridge) Attach(ctx context.Context, id chat.ConversationID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.ErrSubscriptionClosed
	}
	b.detachLocked()

	identity, err := b.session.CurrentIdentity()
	if err != nil {
		return unavailable(err)
	}
	sub, err := b.realtime.SubscribeToNewMessages(ctx, id)
	if err != nil {
		return unavailable(err)
	}

	// The pump outlives the caller's context, it stops on Detach
	pumpCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b.scope, b.sub, b.cancel, b.done = id, sub, cancel, make(chan struct{})
	go b.pump(pumpCtx, sub, id, identity, b.done)

	b.log.Debug("Realtime attached", "conversation_id", id)
	return nil
}

// Detach releases the current subscription, if any, and waits for its pump to stop.
func (b *RealtimeBridge) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detachLocked()
}

func (b *RealtimeBridge) detachLocked() {
	if b.sub == nil {
		return
	}
	b.cancel()
	if err := b.sub.Close(); err != nil {
		b.log.Warn("Unable to close subscription", "conversation_id", b.scope, "error", err)
	}
	<-b.done
	b.log.Debug("Realtime detached", "conversation_id", b.scope)
	b.scope, b.sub, b.cancel, b.done = "", nil, nil, nil
}

// Scope returns the conversation currently subscribed to, empty when detached.
func (b *RealtimeBridge) Scope() chat.ConversationID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scope
}

// Close detaches for good and closes Notices. It is idempotent.
func (b *RealtimeBridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.detachLocked()
	b.closed = true
	close(b.notices)
}

func (b *RealtimeBridge) pump(ctx context.Context, sub contract.Subscription, id chat.ConversationID,
	identity chat.Identity, done chan struct{}) {
	defer close(done)
	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-events:
			if !ok {
				return
			}
			if message.ConversationID != id {
				b.log.Debug("Ignoring insert of another conversation",
					"scope", id, "conversation_id", message.ConversationID)
				continue
			}
			// The event is only a hint, the content comes from the reload
			b.stream.Reload(ctx, id)
			if message.SenderID == identity {
				continue
			}
			b.notify(chat.Notice{
				ConversationID: id,
				MessageID:      message.ID,
				SenderID:       message.SenderID,
				Preview:        truncate(message.Content, previewRunes),
			})
		}
	}
}

func (b *RealtimeBridge) notify(notice chat.Notice) {
	select {
	case b.notices <- notice:
	default:
		b.log.Warn("Notice dropped, buffer full", "conversation_id", notice.ConversationID, "message_id", notice.MessageID)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
