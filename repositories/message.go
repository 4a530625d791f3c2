//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"campus-chat/domain/chat"
	"campus-chat/errors"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const previewLength = 80

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(id chat.ConversationID) ([]chat.Row, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

// NewMessageRepository builds the repository. A non nil limitMessages caps
// GetMessages to the most recent messages.
func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type DiskMessage struct {
	ID             chat.MessageID
	ConversationID chat.ConversationID
	Author         chat.Identity
	Content        string
	Lang           string
	CensoredWords  []string
	At             time.Time
}

// StoreMessage persists the message and, in the same transaction, refreshes the
// conversation preview, makes the conversation visible again for every member and
// moves the author's read marker to the message.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	err := updateWithRetry(m.db, func(txn *badger.Txn) error {
		conversation, err := getRow(txn, conversationKey(message.ConversationID))
		if err != nil {
			return err
		}
		participants := toStringList(conversation["participants"])
		if !slices.Contains(participants, string(message.Author)) {
			return errors.ErrNotParticipant
		}

		if err = setRow(txn, messageKey(message.ConversationID, message.At, message.ID), fromDiskMessage(message)); err != nil {
			return err
		}

		conversation["last_message_preview"] = preview(message.Content)
		conversation["last_message_time"] = formatTime(message.At)
		conversation["last_sender_id"] = string(message.Author)
		if err = setRow(txn, conversationKey(message.ConversationID), conversation); err != nil {
			return err
		}

		for _, p := range participants {
			identity := chat.Identity(p)
			key := memberKey(identity, message.ConversationID)
			member, err := getRow(txn, key)
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				member = newMemberRow(message.ConversationID, identity)
			} else if err != nil {
				return err
			}
			member["hidden"] = false
			if identity == message.Author {
				member["last_read_at"] = formatTime(message.At)
			}
			if err = setRow(txn, key, member); err != nil {
				return err
			}
		}
		return nil
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("conversation %s: %w", message.ConversationID, errors.ErrNotFound)
	}
	return err
}

// GetMessages returns the conversation history in ascending (time, id) order.
// Thanks to the padded timestamp in the key, a prefix scan is already sorted.
func (m MessageRepository) GetMessages(id chat.ConversationID) ([]chat.Row, error) {
	var rows []chat.Row
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(id)
		options := badger.DefaultIteratorOptions
		// With a limit we walk back from the newest message
		options.Reverse = m.limitMessages != nil
		it := txn.NewIterator(options)
		defer it.Close()

		seek := prefix
		if options.Reverse {
			seek = append(append([]byte{}, prefix...), 0xFF)
		}
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(rows) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				row, err := decodeRow(value)
				if err != nil {
					return err
				}
				rows = append(rows, row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if m.limitMessages != nil {
		slices.Reverse(rows)
	}
	return rows, nil
}

func fromDiskMessage(message DiskMessage) chat.Row {
	return chat.Row{
		"id":              string(message.ID),
		"conversation_id": string(message.ConversationID),
		"sender_id":       string(message.Author),
		"content":         message.Content,
		"lang":            message.Lang,
		"censored_words":  toAnyList(message.CensoredWords),
		"created_at":      formatTime(message.At),
	}
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "…"
}
