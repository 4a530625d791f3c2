package runtime

import (
	"campus-chat/contract"
	"campus-chat/domain/chat"
	"sync"
)

type Set map[string]struct{}

type Registry struct {
	mu            sync.RWMutex
	sinks         map[string]contract.EventSink // map subscription -> Sink
	conversations map[chat.ConversationID]Set   // map conversation to subscriptions
}

func NewRegistry() *Registry {
	return &Registry{
		sinks:         make(map[string]contract.EventSink),
		conversations: make(map[chat.ConversationID]Set),
	}
}

// GetSinksForConversation resolves the subscriptions of a conversation into their sinks.
// Returns nil if nobody listens to the conversation.
func (r *Registry) GetSinksForConversation(id chat.ConversationID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.conversations[id]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for subscriptionID := range members {
		if sink, exists := r.sinks[subscriptionID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers a sink for a conversation, creating the conversation entry on the fly.
func (r *Registry) Subscribe(subscriptionID string, id chat.ConversationID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sinks[subscriptionID] = sink

	if _, ok := r.conversations[id]; !ok {
		r.conversations[id] = make(Set)
	}
	r.conversations[id][subscriptionID] = struct{}{}
}

// Unsubscribe removes a subscription and drops the conversation entry once empty.
func (r *Registry) Unsubscribe(subscriptionID string, id chat.ConversationID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sinks, subscriptionID)

	if members, ok := r.conversations[id]; ok {
		delete(members, subscriptionID)

		if len(members) == 0 {
			delete(r.conversations, id)
		}
	}
}

// Count returns the number of live subscriptions for a conversation.
func (r *Registry) Count(id chat.ConversationID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conversations[id])
}
