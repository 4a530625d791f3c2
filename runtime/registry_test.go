package runtime

import (
	"campus-chat/domain/chat"
	"campus-chat/domain/event"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
	name string
}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Subscribe_One_Conversation_One_Subscription(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	subscriptionID := uuid.NewString()
	id := chat.ConversationID("c1")
	sink := Sink{name: "alice"}

	// Given nobody listens
	req.Nil(registry.GetSinksForConversation(id))
	req.Equal(0, registry.Count(id))

	// When a subscription is registered
	registry.Subscribe(subscriptionID, id, sink)

	// Then its sink is resolved for the conversation only
	req.Equal(1, registry.Count(id))
	req.Len(registry.GetSinksForConversation(id), 1)
	req.Contains(registry.GetSinksForConversation(id), sink)
	req.Nil(registry.GetSinksForConversation("c2"))
}

func TestRegistry_Subscribe_One_Conversation_Multiple_Subscriptions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := chat.ConversationID("c1")
	alice, bob := Sink{name: "alice"}, Sink{name: "bob"}

	registry.Subscribe(uuid.NewString(), id, alice)
	registry.Subscribe(uuid.NewString(), id, bob)

	sinks := registry.GetSinksForConversation(id)
	req.Len(sinks, 2)
	req.Contains(sinks, alice)
	req.Contains(sinks, bob)
}

func TestRegistry_Unsubscribe(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := chat.ConversationID("c1")
	first, second := uuid.NewString(), uuid.NewString()
	alice, bob := Sink{name: "alice"}, Sink{name: "bob"}

	// Given two subscriptions
	registry.Subscribe(first, id, alice)
	registry.Subscribe(second, id, bob)

	// When one leaves
	registry.Unsubscribe(first, id)

	// Then only the other remains
	req.Equal([]Sink{bob}, toSinks(registry, id))

	// When the last one leaves, the conversation entry is dropped
	registry.Unsubscribe(second, id)
	req.Nil(registry.GetSinksForConversation(id))
	req.Equal(0, registry.Count(id))

	// Unknown subscriptions are ignored
	registry.Unsubscribe("unknown", id)
}

func toSinks(registry *Registry, id chat.ConversationID) []Sink {
	var sinks []Sink
	for _, s := range registry.GetSinksForConversation(id) {
		sinks = append(sinks, s.(Sink))
	}
	return sinks
}
