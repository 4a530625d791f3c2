// Package client is the chat core: it keeps the conversation list, the active message
// sequence and the realtime subscription consistent while the user selects, starts and
// writes in conversations. Collaborators are reached through the contract interfaces only.
package client

import (
	"campus-chat/contract"
	"campus-chat/domain/chat"
	"campus-chat/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
)

type Controller struct {
	log           *slog.Logger
	session       contract.Session
	directory     contract.Directory
	conversations contract.ConversationBackend
	messages      contract.MessageBackend

	store  *ConversationStore
	stream *MessageStream
	bridge *RealtimeBridge

	// selectMu serialises selection switches, history loads run outside of it
	selectMu sync.Mutex

	mu     sync.RWMutex
	active *chat.Conversation
	draft  string

	sending atomic.Bool

	notices   chan chat.Notice
	ctx       context.Context
	cancel    context.CancelFunc
	loopDone  chan struct{}
	closeOnce sync.Once
}

type ControllerConfig struct {
	Session          contract.Session
	Directory        contract.Directory
	Conversations    contract.ConversationBackend
	Messages         contract.MessageBackend
	Realtime         contract.Realtime
	NoticeBufferSize int
}

// NewController builds the core components and starts forwarding realtime notices.
// Close must be called to release the subscription and the forwarding goroutine.
func NewController(log *slog.Logger, cfg ControllerConfig) *Controller {
	stream := NewMessageStream(log, cfg.Messages)
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		log:           log,
		session:       cfg.Session,
		directory:     cfg.Directory,
		conversations: cfg.Conversations,
		messages:      cfg.Messages,
		store:         NewConversationStore(log, cfg.Session, cfg.Conversations),
		stream:        stream,
		bridge:        NewRealtimeBridge(log, cfg.Session, cfg.Realtime, stream, cfg.NoticeBufferSize),
		notices:       make(chan chat.Notice, cfg.NoticeBufferSize),
		ctx:           ctx,
		cancel:        cancel,
		loopDone:      make(chan struct{}),
	}
	go c.forwardNotices()
	return c
}

func (c *Controller) Store() *ConversationStore { return c.store }

func (c *Controller) Stream() *MessageStream { return c.stream }

// Notices reports messages written by others in the active conversation.
// The channel is closed by Close.
func (c *Controller) Notices() <-chan chat.Notice { return c.notices }

// Active returns the selected conversation.
func (c *Controller) Active() (chat.Conversation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active == nil {
		return chat.Conversation{}, false
	}
	return *c.active, true
}

func (c *Controller) isActive(id chat.ConversationID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active != nil && c.active.ID == id
}

func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

func (c *Controller) Draft() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.draft
}

// SelectConversation makes conversation the active one: the previous sequence is discarded,
// the realtime subscription is moved, then the history is loaded. A successful load marks
// the conversation read.
func (c *Controller) SelectConversation(ctx context.Context, conversation chat.Conversation) {
	c.selectMu.Lock()
	c.mu.Lock()
	c.active = &conversation
	c.mu.Unlock()
	c.stream.Switch(conversation.ID)
	if err := c.bridge.Attach(ctx, conversation.ID); err != nil {
		// History still loads, only live updates are missing
		c.log.Warn("Realtime unavailable", "conversation_id", conversation.ID, "error", err)
	}
	c.selectMu.Unlock()

	if c.stream.LoadHistory(ctx, conversation.ID) && c.isActive(conversation.ID) {
		c.markRead(ctx, conversation.ID)
	}
}

func (c *Controller) markRead(ctx context.Context, id chat.ConversationID) {
	identity, err := c.session.CurrentIdentity()
	if err != nil {
		c.log.Warn("Unable to mark conversation read", "conversation_id", id, "error", err)
		return
	}
	if err = c.conversations.MarkRead(ctx, id, identity); err != nil {
		c.log.Warn("Unable to mark conversation read", "conversation_id", id, "error", err)
		return
	}
	c.store.MarkRead(id)
}

// refresh reloads the list and replaces a synthesized active record with the stored one.
func (c *Controller) refresh(ctx context.Context) {
	conversations := c.store.Refresh(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return
	}
	if stored, ok := lo.Find(conversations, func(conv chat.Conversation) bool { return conv.ID == c.active.ID }); ok {
		c.active = &stored
	}
}

// Deselect drops the active conversation and its subscription.
func (c *Controller) Deselect() {
	c.selectMu.Lock()
	defer c.selectMu.Unlock()
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
	c.bridge.Detach()
	c.stream.Reset()
}

// SendMessage sends text to the conversation. Only one send may be in flight, a concurrent
// call gets ErrBusy and leaves the draft alone. The draft is cleared on success only.
func (c *Controller) SendMessage(ctx context.Context, id chat.ConversationID, text string) error {
	content, ok := chat.CleanContent(text)
	if !ok {
		return fmt.Errorf("%w: message is empty", errors.ErrValidation)
	}
	if !c.sending.CompareAndSwap(false, true) {
		return errors.ErrBusy
	}
	defer c.sending.Store(false)

	identity, err := c.session.CurrentIdentity()
	if err != nil {
		return unavailable(err)
	}
	receipt, err := c.messages.SendMessage(ctx, id, identity, content)
	if err != nil {
		c.log.Error("Unable to send message", "conversation_id", id, "error", err)
		return unavailable(err)
	}
	c.log.Debug("Message sent", "conversation_id", id, "message_id", receipt.ID)

	c.SetDraft("")
	c.stream.Reload(ctx, id)
	c.refresh(ctx)
	return nil
}

// StartChatWith opens the conversation with identity, creating it when needed, and
// selects it right away with a record built from the directory profile.
func (c *Controller) StartChatWith(ctx context.Context, identity chat.Identity) (chat.ConversationID, error) {
	me, err := c.session.CurrentIdentity()
	if err != nil {
		return "", unavailable(err)
	}
	if identity == me {
		return "", fmt.Errorf("%w: cannot start a conversation with yourself", errors.ErrValidation)
	}

	profile, err := c.directory.LookupIdentity(ctx, identity)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return "", fmt.Errorf("identity %s: %w", identity, errors.ErrNotFound)
		}
		return "", unavailable(err)
	}

	id, err := c.store.CreateOrGetConversation(ctx, identity)
	if err != nil {
		return "", err
	}

	conversation, ok := c.store.Lookup(id)
	if !ok {
		conversation = chat.Synthesize(id, profile)
	}
	c.SelectConversation(ctx, conversation)
	return id, nil
}

// HideConversation removes the conversation from the list of the current identity.
func (c *Controller) HideConversation(ctx context.Context, id chat.ConversationID) error {
	identity, err := c.session.CurrentIdentity()
	if err != nil {
		return unavailable(err)
	}
	if err = c.conversations.HideConversation(ctx, id, identity); err != nil {
		return collaboratorError(err)
	}
	if c.isActive(id) {
		c.Deselect()
	}
	c.refresh(ctx)
	return nil
}

// SearchIdentities queries the directory, leaving the current identity out.
func (c *Controller) SearchIdentities(ctx context.Context, query string) ([]chat.Profile, error) {
	me, err := c.session.CurrentIdentity()
	if err != nil {
		return nil, unavailable(err)
	}
	profiles, err := c.directory.SearchIdentities(ctx, query)
	if err != nil {
		return nil, unavailable(err)
	}
	return lo.Filter(profiles, func(p chat.Profile, _ int) bool { return p.ID != me }), nil
}

// forwardNotices marks the active conversation read and refreshes the list for every
// notice, then hands the notice over. It stops once the bridge is closed.
func (c *Controller) forwardNotices() {
	defer close(c.loopDone)
	defer close(c.notices)
	for notice := range c.bridge.Notices() {
		if c.isActive(notice.ConversationID) {
			c.markRead(c.ctx, notice.ConversationID)
		}
		c.refresh(c.ctx)
		select {
		case c.notices <- notice:
		default:
			c.log.Warn("Notice dropped, buffer full", "conversation_id", notice.ConversationID)
		}
	}
}

// Close releases the subscription and stops every goroutine started by the controller.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.selectMu.Lock()
		c.bridge.Close()
		c.selectMu.Unlock()
		<-c.loopDone
		c.log.Debug("Controller closed")
	})
}
