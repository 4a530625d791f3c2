//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"campus-chat/domain/chat"
	"campus-chat/domain/event"
	"context"
	"reflect"
)

// Session exposes the identity the client is acting as.
type Session interface {
	CurrentIdentity() (chat.Identity, error)
}

// Directory resolves user identities.
type Directory interface {
	LookupIdentity(ctx context.Context, id chat.Identity) (chat.Profile, error)
	SearchIdentities(ctx context.Context, query string) ([]chat.Profile, error)
}

// ConversationBackend owns conversation rows and per-member read markers.
type ConversationBackend interface {
	ListConversations(ctx context.Context, identity chat.Identity) ([]chat.Conversation, error)
	// GetOrCreateConversation is idempotent for an unordered pair.
	GetOrCreateConversation(ctx context.Context, a, b chat.Identity) (chat.ConversationID, error)
	MarkRead(ctx context.Context, id chat.ConversationID, identity chat.Identity) error
	HideConversation(ctx context.Context, id chat.ConversationID, identity chat.Identity) error
}

// MessageBackend persists and lists messages.
type MessageBackend interface {
	// ListMessages returns the history ordered by creation time ascending.
	ListMessages(ctx context.Context, id chat.ConversationID) ([]chat.Message, error)
	SendMessage(ctx context.Context, id chat.ConversationID, sender chat.Identity, content string) (chat.Receipt, error)
}

// Realtime hands out live feeds of newly inserted messages.
type Realtime interface {
	SubscribeToNewMessages(ctx context.Context, id chat.ConversationID) (Subscription, error)
}

// Subscription is a live feed handle. Events is closed once Close returns.
type Subscription interface {
	Events() <-chan chat.Message
	Close() error
}

// Worker doesn't protect itself.
// Panics and restarts are the supervisor's business.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink consumes events delivered by the fanout worker.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry maps conversations to the sinks subscribed to them.
type IRegistry interface {
	GetSinksForConversation(id chat.ConversationID) []EventSink
	Subscribe(subscriptionID string, id chat.ConversationID, sink EventSink)
	Unsubscribe(subscriptionID string, id chat.ConversationID)
}
