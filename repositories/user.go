//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"campus-chat/domain/chat"
	"campus-chat/errors"
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(user NewUser) (chat.Identity, error)
	GetUserByEmail(email string) (User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// NewUser carries what registration knows about an account and its public profile.
type NewUser struct {
	Email        string
	PasswordHash string
	DisplayName  string
	Affiliation  string
	Avatar       string
}

// User is the account as stored, never exposed outside the auth flow.
type User struct {
	ID           chat.Identity
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

// CreateUser stores the account and its profile in a single transaction.
// It returns the newly generated identity.
func (u UserRepository) CreateUser(user NewUser) (chat.Identity, error) {
	id := chat.Identity(uuid.NewString())
	now := formatTime(time.Now())

	err := updateWithRetry(u.db, func(txn *badger.Txn) error {
		key := userKey(user.Email)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		err := setRow(txn, key, chat.Row{
			"id":            string(id),
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"roles":         toAnyList([]string{"user"}),
			"created_at":    now,
		})
		if err != nil {
			return err
		}
		return setRow(txn, profileKey(id), chat.Row{
			"id":           string(id),
			"display_name": user.DisplayName,
			"affiliation":  user.Affiliation,
			"avatar_url":   user.Avatar,
			"created_at":   now,
		})
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetUserByEmail returns errors.ErrNotFound when no account uses this email.
func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var row chat.Row
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		row, err = getRow(txn, userKey(email))
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return User{}, errors.ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return toUser(row), nil
}

func toUser(row chat.Row) User {
	id, _ := row["id"].(string)
	email, _ := row["email"].(string)
	hash, _ := row["password_hash"].(string)
	return User{
		ID:           chat.Identity(id),
		Email:        email,
		PasswordHash: hash,
		Roles:        toStringList(row["roles"]),
		CreatedAt:    parseTime(row["created_at"]),
	}
}
