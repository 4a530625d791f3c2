package event

import (
	"campus-chat/domain/chat"
)

// DomainEvent is anything published on the realtime feed, scoped to one conversation.
type DomainEvent interface {
	ConversationID() chat.ConversationID
}

// MessageInserted is emitted once a message row has been persisted.
// Consumers treat it as a hint to reload, not as the authoritative content.
type MessageInserted struct {
	Message chat.Message
}

func (m MessageInserted) ConversationID() chat.ConversationID {
	return m.Message.ConversationID
}
