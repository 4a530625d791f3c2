package chat

import (
	"campus-chat/errors"
	"fmt"
	"math"
	"time"
)

// Row is a loosely typed record as handed back by the backend tables.
// Numbers arrive as float64, relations may be embedded as an object or as a list.
type Row = map[string]any

// NormalizeProfile accepts a profile embedded either as an object or as a one-element list.
func NormalizeProfile(raw any) (Profile, error) {
	switch v := raw.(type) {
	case map[string]any:
		id, err := requiredString(v, "id")
		if err != nil {
			return Profile{}, err
		}
		return Profile{
			ID:          Identity(id),
			DisplayName: optionalString(v, "display_name"),
			Avatar:      optionalString(v, "avatar_url"),
			Affiliation: optionalString(v, "affiliation"),
		}, nil
	case []any:
		if len(v) == 0 {
			return Profile{}, fmt.Errorf("%w: empty profile list", errors.ErrMalformedRow)
		}
		return NormalizeProfile(v[0])
	case []map[string]any:
		if len(v) == 0 {
			return Profile{}, fmt.Errorf("%w: empty profile list", errors.ErrMalformedRow)
		}
		return NormalizeProfile(v[0])
	default:
		return Profile{}, fmt.Errorf("%w: unexpected profile shape %T", errors.ErrMalformedRow, raw)
	}
}

// NormalizeConversation turns a conversation list row into a Conversation.
// A negative unread count is clamped to zero.
func NormalizeConversation(row Row) (Conversation, error) {
	id, err := requiredString(row, "conversation_id")
	if err != nil {
		return Conversation{}, err
	}
	other, err := NormalizeProfile(row["other_participant"])
	if err != nil {
		return Conversation{}, fmt.Errorf("conversation %s: %w", id, err)
	}
	lastTime, err := optionalTime(row, "last_message_time")
	if err != nil {
		return Conversation{}, err
	}
	createdAt, err := optionalTime(row, "created_at")
	if err != nil {
		return Conversation{}, err
	}
	conversation := Conversation{
		ID:              ConversationID(id),
		Other:           other,
		LastMessageTime: lastTime,
		UnreadCount:     max(optionalInt(row, "unread_count"), 0),
	}
	if preview, ok := row["last_message_preview"].(string); ok {
		conversation.LastMessagePreview = &preview
	}
	if createdAt != nil {
		conversation.CreatedAt = *createdAt
	}
	return conversation, nil
}

// NormalizeMessage turns a message row into a Message.
func NormalizeMessage(row Row) (Message, error) {
	id, err := requiredString(row, "id")
	if err != nil {
		return Message{}, err
	}
	conversationID, err := requiredString(row, "conversation_id")
	if err != nil {
		return Message{}, err
	}
	sender, err := requiredString(row, "sender_id")
	if err != nil {
		return Message{}, err
	}
	createdAt, err := optionalTime(row, "created_at")
	if err != nil {
		return Message{}, err
	}
	if createdAt == nil {
		return Message{}, fmt.Errorf("%w: missing created_at", errors.ErrMalformedRow)
	}
	return Message{
		ID:             MessageID(id),
		ConversationID: ConversationID(conversationID),
		SenderID:       Identity(sender),
		Content:        optionalString(row, "content"),
		CreatedAt:      *createdAt,
	}, nil
}

func requiredString(row Row, key string) (string, error) {
	v, ok := row[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: missing %s", errors.ErrMalformedRow, key)
	}
	return v, nil
}

func optionalString(row Row, key string) string {
	v, _ := row[key].(string)
	return v
}

func optionalInt(row Row, key string) int {
	switch v := row[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

// optionalTime reads RFC3339 strings or unix seconds.
func optionalTime(row Row, key string) (*time.Time, error) {
	switch v := row[key].(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errors.ErrMalformedRow, key, err)
		}
		t = t.UTC()
		return &t, nil
	case float64:
		sec, frac := math.Modf(v)
		t := time.Unix(int64(sec), int64(frac*1e9)).UTC()
		return &t, nil
	case time.Time:
		t := v.UTC()
		return &t, nil
	default:
		return nil, fmt.Errorf("%w: %s has type %T", errors.ErrMalformedRow, key, v)
	}
}
