package chat

import (
	"sort"
	"time"
)

type ConversationID string

func (c ConversationID) String() string { return string(c) }

// Conversation is a messaging thread as seen by one participant.
// Other is the counterpart, the preview fields are denormalized from the latest message.
type Conversation struct {
	ID                 ConversationID
	Other              Profile
	LastMessagePreview *string
	LastMessageTime    *time.Time
	UnreadCount        int
	CreatedAt          time.Time
}

// Synthesize builds a placeholder record for a freshly created thread so it can be
// displayed before the next list reload replaces it.
func Synthesize(id ConversationID, other Profile) Conversation {
	return Conversation{ID: id, Other: other}
}

// activity is the instant used to order conversations, falling back to creation time.
func (c Conversation) activity() time.Time {
	if c.LastMessageTime != nil {
		return *c.LastMessageTime
	}
	return c.CreatedAt
}

// SortByActivity orders conversations by most recent activity first.
func SortByActivity(conversations []Conversation) {
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].activity().After(conversations[j].activity())
	})
}
