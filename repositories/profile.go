//go:generate go run go.uber.org/mock/mockgen -source=profile.go -destination=../mocks/mock_profile_repository.go -package=mocks
package repositories

import (
	"campus-chat/domain/chat"
	"campus-chat/errors"
	stderrors "errors"

	"github.com/dgraph-io/badger/v4"
)

type IProfileRepository interface {
	GetProfile(id chat.Identity) (chat.Row, error)
	ListProfiles() ([]chat.Row, error)
}

type ProfileRepository struct {
	db *badger.DB
}

func NewProfileRepository(db *badger.DB) ProfileRepository {
	return ProfileRepository{db: db}
}

// GetProfile returns errors.ErrNotFound for an unknown identity.
func (p ProfileRepository) GetProfile(id chat.Identity) (chat.Row, error) {
	var row chat.Row
	err := p.db.View(func(txn *badger.Txn) error {
		var err error
		row, err = getRow(txn, profileKey(id))
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.ErrNotFound
	}
	return row, err
}

// ListProfiles scans every profile, used to rebuild the search index at startup.
func (p ProfileRepository) ListProfiles() ([]chat.Row, error) {
	var rows []chat.Row
	err := p.db.View(func(txn *badger.Txn) error {
		prefix := []byte("profile:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
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
	return rows, err
}
