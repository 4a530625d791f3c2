package chat

import (
	"sort"
	"strings"
	"time"
)

// MessageID is creation-ordered: comparing two ids as strings follows creation order.
type MessageID string

// Message represents an immutable chat utterance.
type Message struct {
	ID             MessageID
	ConversationID ConversationID
	SenderID       Identity
	Content        string
	CreatedAt      time.Time
}

// Receipt is what the backend hands back once a message is persisted.
type Receipt struct {
	ID        MessageID
	CreatedAt time.Time
}

// Before reports whether m is ordered before o, by creation time then id.
func (m Message) Before(o Message) bool {
	if !m.CreatedAt.Equal(o.CreatedAt) {
		return m.CreatedAt.Before(o.CreatedAt)
	}
	return m.ID < o.ID
}

// SortMessages orders messages by (CreatedAt, ID) ascending.
func SortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Before(messages[j])
	})
}

// CleanContent trims the text and reports whether anything is left to send.
func CleanContent(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	return trimmed, trimmed != ""
}
