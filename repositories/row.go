package repositories

import (
	"campus-chat/domain/chat"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Rows are stored schemaless, as protobuf Structs. Readers get them back as chat.Row
// and go through the chat normalizers, the way a hosted table would hand back JSON.

const maxTxnRetries = 5

func encodeRow(row chat.Row) ([]byte, error) {
	s, err := structpb.NewStruct(row)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	return proto.Marshal(s)
}

func decodeRow(value []byte) (chat.Row, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(value, &s); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return s.AsMap(), nil
}

func getRow(txn *badger.Txn, key []byte) (chat.Row, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	var row chat.Row
	err = item.Value(func(value []byte) error {
		var decodeErr error
		row, decodeErr = decodeRow(value)
		return decodeErr
	})
	return row, err
}

func setRow(txn *badger.Txn, key []byte, row chat.Row) error {
	bytes, err := encodeRow(row)
	if err != nil {
		return err
	}
	return txn.Set(key, bytes)
}

// updateWithRetry runs fn in a read-write transaction, retrying when badger reports
// a conflict with a concurrent transaction.
func updateWithRetry(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		err = db.Update(fn)
		if !stderrors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v any) time.Time {
	s, _ := v.(string)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func toAnyList(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func toStringList(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Key layout:
//
//	user:{email}
//	profile:{identity}
//	conv:{conversation}
//	pair:{lowest identity}|{highest identity}
//	member:{identity}:{conversation}
//	msg:{conversation}:{unix nano, 19 digits}:{message id}
func userKey(email string) []byte { return []byte("user:" + strings.ToLower(email)) }

func profileKey(id chat.Identity) []byte { return []byte("profile:" + string(id)) }

func conversationKey(id chat.ConversationID) []byte { return []byte("conv:" + string(id)) }

func pairKey(a, b chat.Identity) []byte {
	if b < a {
		a, b = b, a
	}
	return []byte(fmt.Sprintf("pair:%s|%s", a, b))
}

func memberPrefix(identity chat.Identity) []byte {
	return []byte(fmt.Sprintf("member:%s:", identity))
}

func memberKey(identity chat.Identity, id chat.ConversationID) []byte {
	return []byte(fmt.Sprintf("member:%s:%s", identity, id))
}

func messagePrefix(id chat.ConversationID) []byte { return []byte(fmt.Sprintf("msg:%s:", id)) }

// messageKey pads the timestamp to 19 digits so lexicographic order is chronological,
// the creation-ordered id breaking ties.
func messageKey(id chat.ConversationID, at time.Time, messageID chat.MessageID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", id, at.UnixNano(), messageID))
}

// ScanRows decodes every row whose key starts with prefix, in key order.
// pair: keys hold raw ids, not rows, and must not be scanned.
func ScanRows(db *badger.DB, prefix string, visit func(key string, row chat.Row) error) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			err := item.Value(func(value []byte) error {
				row, err := decodeRow(value)
				if err != nil {
					return fmt.Errorf("key %s: %w", key, err)
				}
				return visit(key, row)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
