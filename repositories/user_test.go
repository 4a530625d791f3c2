package repositories

import (
	"campus-chat/domain/chat"
	"campus-chat/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_CreateUser_Stores_Account_And_Profile(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	users := NewUserRepository(db)
	profiles := NewProfileRepository(db)

	id, err := users.CreateUser(NewUser{
		Email: "Alice@Campus.edu", PasswordHash: "hash", DisplayName: "Alice", Affiliation: "Physics",
	})
	req.NoError(err)

	// Then the account is found case insensitively
	user, err := users.GetUserByEmail("alice@campus.edu")
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("hash", user.PasswordHash)
	req.Equal([]string{"user"}, user.Roles)

	// And the profile is readable
	row, err := profiles.GetProfile(id)
	req.NoError(err)
	profile, err := chat.NormalizeProfile(row)
	req.NoError(err)
	req.Equal("Alice", profile.DisplayName)

	all, err := profiles.ListProfiles()
	req.NoError(err)
	req.Len(all, 1)
}

func Test_CreateUser_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	users := NewUserRepository(openTestDB(t))
	_, err := users.CreateUser(NewUser{Email: "bob@campus.edu"})
	req.NoError(err)
	_, err = users.CreateUser(NewUser{Email: "bob@campus.edu"})
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Unknown_User_And_Profile(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	_, err := NewUserRepository(db).GetUserByEmail("nobody@campus.edu")
	req.ErrorIs(err, errors.ErrNotFound)
	_, err = NewProfileRepository(db).GetProfile("nobody")
	req.ErrorIs(err, errors.ErrNotFound)
}
