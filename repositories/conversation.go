//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"campus-chat/domain/chat"
	"campus-chat/errors"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IConversationRepository interface {
	GetOrCreate(a, b chat.Identity, at time.Time) (chat.ConversationID, bool, error)
	ListForMember(identity chat.Identity) ([]chat.Row, error)
	Participants(id chat.ConversationID) ([]chat.Identity, error)
	MarkRead(id chat.ConversationID, identity chat.Identity, at time.Time) error
	Hide(id chat.ConversationID, identity chat.Identity) error
}

type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) ConversationRepository {
	return ConversationRepository{db: db, log: log}
}

// GetOrCreate returns the conversation of the unordered pair (a, b), creating it with both
// member rows when missing. The pair key is read inside the write transaction, so two
// concurrent creations conflict and the retry finds the winner's id.
func (r ConversationRepository) GetOrCreate(a, b chat.Identity, at time.Time) (chat.ConversationID, bool, error) {
	if a == b {
		return "", false, fmt.Errorf("%w: a conversation needs two distinct participants", errors.ErrValidation)
	}
	var id chat.ConversationID
	var created bool
	err := updateWithRetry(r.db, func(txn *badger.Txn) error {
		created = false
		key := pairKey(a, b)
		item, err := txn.Get(key)
		if err == nil {
			return item.Value(func(value []byte) error {
				id = chat.ConversationID(value)
				return nil
			})
		}
		if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		id = chat.ConversationID(uuid.NewString())
		created = true
		if err = txn.Set(key, []byte(id)); err != nil {
			return err
		}
		err = setRow(txn, conversationKey(id), chat.Row{
			"id":           string(id),
			"participants": toAnyList([]string{string(a), string(b)}),
			"created_at":   formatTime(at),
		})
		if err != nil {
			return err
		}
		for _, member := range []chat.Identity{a, b} {
			if err = setRow(txn, memberKey(member, id), newMemberRow(id, member)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return id, created, nil
}

func newMemberRow(id chat.ConversationID, member chat.Identity) chat.Row {
	return chat.Row{
		"conversation_id": string(id),
		"identity":        string(member),
		"last_read_at":    "",
		"hidden":          false,
	}
}

// ListForMember returns one view row per visible conversation of identity, shaped like
// a joined query: the counterpart profile is embedded as a one-element list and the
// unread count is derived from the member's read marker.
func (r ConversationRepository) ListForMember(identity chat.Identity) ([]chat.Row, error) {
	var rows []chat.Row
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := memberPrefix(identity)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var member chat.Row
			err := it.Item().Value(func(value []byte) error {
				var err error
				member, err = decodeRow(value)
				return err
			})
			if err != nil {
				return err
			}
			if hidden, _ := member["hidden"].(bool); hidden {
				continue
			}
			conversationID, _ := member["conversation_id"].(string)
			row, err := r.viewRow(txn, chat.ConversationID(conversationID), identity, parseTime(member["last_read_at"]))
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	return rows, err
}

func (r ConversationRepository) viewRow(txn *badger.Txn, id chat.ConversationID,
	identity chat.Identity, lastRead time.Time) (chat.Row, error) {
	conversation, err := getRow(txn, conversationKey(id))
	if err != nil {
		return nil, fmt.Errorf("conversation %s: %w", id, err)
	}

	var other chat.Identity
	for _, p := range toStringList(conversation["participants"]) {
		if chat.Identity(p) != identity {
			other = chat.Identity(p)
		}
	}
	profile, err := getRow(txn, profileKey(other))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		r.log.Warn("Counterpart profile missing", "conversation_id", id, "identity", other)
		profile = chat.Row{"id": string(other)}
	} else if err != nil {
		return nil, err
	}

	unread, err := countUnread(txn, id, identity, lastRead)
	if err != nil {
		return nil, err
	}

	return chat.Row{
		"conversation_id":      string(id),
		"other_participant":    []any{profile},
		"last_message_preview": conversation["last_message_preview"],
		"last_message_time":    conversation["last_message_time"],
		"unread_count":         float64(unread),
		"created_at":           conversation["created_at"],
	}, nil
}

// countUnread counts messages written by others strictly after lastRead.
func countUnread(txn *badger.Txn, id chat.ConversationID, identity chat.Identity, lastRead time.Time) (int, error) {
	prefix := messagePrefix(id)
	seek := prefix
	if !lastRead.IsZero() {
		seek = []byte(fmt.Sprintf("%s%019d", prefix, lastRead.UnixNano()+1))
	}

	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	count := 0
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		err := it.Item().Value(func(value []byte) error {
			row, err := decodeRow(value)
			if err != nil {
				return err
			}
			if sender, _ := row["sender_id"].(string); chat.Identity(sender) != identity {
				count++
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return count, nil
}

// Participants returns errors.ErrNotFound for an unknown conversation.
func (r ConversationRepository) Participants(id chat.ConversationID) ([]chat.Identity, error) {
	var participants []chat.Identity
	err := r.db.View(func(txn *badger.Txn) error {
		row, err := getRow(txn, conversationKey(id))
		if err != nil {
			return err
		}
		for _, p := range toStringList(row["participants"]) {
			participants = append(participants, chat.Identity(p))
		}
		return nil
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.ErrNotFound
	}
	return participants, err
}

// MarkRead moves the member's read marker forward to at. It never moves it back.
func (r ConversationRepository) MarkRead(id chat.ConversationID, identity chat.Identity, at time.Time) error {
	return r.updateMember(id, identity, func(member chat.Row) {
		if at.After(parseTime(member["last_read_at"])) {
			member["last_read_at"] = formatTime(at)
		}
	})
}

// Hide removes the conversation from the member's list until a new message arrives.
func (r ConversationRepository) Hide(id chat.ConversationID, identity chat.Identity) error {
	return r.updateMember(id, identity, func(member chat.Row) {
		member["hidden"] = true
	})
}

func (r ConversationRepository) updateMember(id chat.ConversationID, identity chat.Identity, mutate func(chat.Row)) error {
	err := updateWithRetry(r.db, func(txn *badger.Txn) error {
		key := memberKey(identity, id)
		member, err := getRow(txn, key)
		if err != nil {
			return err
		}
		mutate(member)
		return setRow(txn, key, member)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrNotParticipant
	}
	return err
}
