package services

import (
	"campus-chat/domain/chat"
	"campus-chat/errors"
	"campus-chat/mocks"
	"campus-chat/repositories"
	"context"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDirectoryService_LookupAndSearch(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer func() { _ = db.Close() }()

	users := repositories.NewUserRepository(db)
	idx := newTestIndex(t, log)
	directory := NewDirectoryService(log, repositories.NewProfileRepository(db), idx)

	// Given profiles stored before the index existed
	ada, err := users.CreateUser(repositories.NewUser{Email: "ada@campus.edu", DisplayName: "Ada Lovelace", Affiliation: "Mathematics"})
	req.NoError(err)
	_, err = users.CreateUser(repositories.NewUser{Email: "alan@campus.edu", DisplayName: "Alan Turing", Affiliation: "Computer Science"})
	req.NoError(err)

	// When the index is rebuilt
	count, err := directory.Reindex(idx)
	req.NoError(err)
	req.Equal(2, count)

	// Then a prefix finds the profile
	profiles, err := directory.SearchIdentities(ctx, "lov")
	req.NoError(err)
	req.Len(profiles, 1)
	req.Equal(ada, profiles[0].ID)
	req.Equal("Ada Lovelace", profiles[0].DisplayName)

	// And a shared prefix finds both
	profiles, err = directory.SearchIdentities(ctx, "a")
	req.NoError(err)
	req.Len(profiles, 2)

	// And an empty query finds nothing
	profiles, err = directory.SearchIdentities(ctx, "   ")
	req.NoError(err)
	req.Empty(profiles)

	profile, err := directory.LookupIdentity(ctx, ada)
	req.NoError(err)
	req.Equal("Mathematics", profile.Affiliation)

	_, err = directory.LookupIdentity(ctx, "ghost")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestDirectoryService_SearchSkipsVanishedProfiles(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	idx := newTestIndex(t, log)
	req.NoError(idx.Index(chat.Profile{ID: "gone", DisplayName: "Grace Gone"}))
	req.NoError(idx.Index(chat.Profile{ID: "here", DisplayName: "Grace Here"}))

	profiles := mocks.NewMockIProfileRepository(ctrl)
	profiles.EXPECT().GetProfile(chat.Identity("gone")).Return(nil, errors.ErrNotFound)
	profiles.EXPECT().GetProfile(chat.Identity("here")).Return(chat.Row{"id": "here", "display_name": "Grace Here"}, nil)

	directory := NewDirectoryService(log, profiles, idx)
	found, err := directory.SearchIdentities(context.Background(), "grace")
	req.NoError(err)
	req.Equal([]chat.Profile{{ID: "here", DisplayName: "Grace Here"}}, found)
}
