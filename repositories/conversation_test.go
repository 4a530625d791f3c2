package repositories

import (
	"campus-chat/domain/chat"
	"campus-chat/errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_GetOrCreate_Is_Idempotent_For_The_Pair(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t), slog.Default())

	// When the pair is requested in both orders
	first, created, err := repository.GetOrCreate("alice", "bob", time.Now())
	req.NoError(err)
	req.True(created)
	second, created, err := repository.GetOrCreate("bob", "alice", time.Now())
	req.NoError(err)

	// Then the same conversation comes back
	req.False(created)
	req.Equal(first, second)
}

func Test_GetOrCreate_Concurrent_Calls_Agree(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t), slog.Default())

	const callers = 8
	ids := make([]chat.ConversationID, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], _, errs[i] = repository.GetOrCreate("alice", "bob", time.Now())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		req.NoError(errs[i])
		req.Equal(ids[0], ids[i])
	}
}

func Test_GetOrCreate_Rejects_Self_Conversation(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t), slog.Default())
	_, _, err := repository.GetOrCreate("alice", "alice", time.Now())
	req.ErrorIs(err, errors.ErrValidation)
}

func Test_ListForMember_Joins_Profile_Preview_And_Unread(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	users := NewUserRepository(db)
	conversations := NewConversationRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default(), nil)

	alice, err := users.CreateUser(NewUser{Email: "alice@campus.edu", DisplayName: "Alice", Affiliation: "Physics"})
	req.NoError(err)
	bob, err := users.CreateUser(NewUser{Email: "bob@campus.edu", DisplayName: "Bob", Affiliation: "History"})
	req.NoError(err)
	id := newConversation(t, conversations, alice, bob)

	// Given Bob wrote twice and Alice once
	at := time.Now().UTC()
	req.NoError(messages.StoreMessage(DiskMessage{ID: "1", ConversationID: id, Author: bob, Content: "hey", At: at}))
	req.NoError(messages.StoreMessage(DiskMessage{ID: "2", ConversationID: id, Author: bob, Content: "you there?", At: at.Add(time.Second)}))

	// When Alice lists her conversations
	rows, err := conversations.ListForMember(alice)
	req.NoError(err)
	req.Len(rows, 1)
	conversation, err := chat.NormalizeConversation(rows[0])
	req.NoError(err)

	// Then Bob is the counterpart, the preview is his last message and both are unread
	req.Equal(id, conversation.ID)
	req.Equal(chat.Profile{ID: bob, DisplayName: "Bob", Affiliation: "History"}, conversation.Other)
	req.NotNil(conversation.LastMessagePreview)
	req.Equal("you there?", *conversation.LastMessagePreview)
	req.Equal(2, conversation.UnreadCount)

	// And replying moves Alice's read marker
	req.NoError(messages.StoreMessage(DiskMessage{ID: "3", ConversationID: id, Author: alice, Content: "yes", At: at.Add(2 * time.Second)}))
	rows, err = conversations.ListForMember(alice)
	req.NoError(err)
	conversation, err = chat.NormalizeConversation(rows[0])
	req.NoError(err)
	req.Equal(0, conversation.UnreadCount)

	// And Bob has Alice's reply unread
	rows, err = conversations.ListForMember(bob)
	req.NoError(err)
	conversation, err = chat.NormalizeConversation(rows[0])
	req.NoError(err)
	req.Equal(1, conversation.UnreadCount)
	req.Equal("Alice", conversation.Other.DisplayName)
}

func Test_MarkRead_Resets_Unread(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	conversations := NewConversationRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default(), nil)
	id := newConversation(t, conversations, "alice", "bob")
	at := time.Now().UTC()
	req.NoError(messages.StoreMessage(DiskMessage{ID: "1", ConversationID: id, Author: "bob", Content: "hey", At: at}))

	req.NoError(conversations.MarkRead(id, "alice", at))
	// An older marker never moves it back
	req.NoError(conversations.MarkRead(id, "alice", at.Add(-time.Hour)))

	rows, err := conversations.ListForMember("alice")
	req.NoError(err)
	conversation, err := chat.NormalizeConversation(rows[0])
	req.NoError(err)
	req.Equal(0, conversation.UnreadCount)

	req.ErrorIs(conversations.MarkRead(id, "mallory", at), errors.ErrNotParticipant)
}

func Test_Hide_Until_Next_Message(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	conversations := NewConversationRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default(), nil)
	id := newConversation(t, conversations, "alice", "bob")

	// When Alice hides the conversation
	req.NoError(conversations.Hide(id, "alice"))

	// Then it leaves her list only
	rows, err := conversations.ListForMember("alice")
	req.NoError(err)
	req.Empty(rows)
	rows, err = conversations.ListForMember("bob")
	req.NoError(err)
	req.Len(rows, 1)

	// And a new message brings it back
	req.NoError(messages.StoreMessage(DiskMessage{ID: "1", ConversationID: id, Author: "bob", Content: "ping", At: time.Now()}))
	rows, err = conversations.ListForMember("alice")
	req.NoError(err)
	req.Len(rows, 1)
}

func Test_Participants(t *testing.T) {
	req := require.New(t)
	conversations := NewConversationRepository(openTestDB(t), slog.Default())
	id := newConversation(t, conversations, "alice", "bob")

	participants, err := conversations.Participants(id)
	req.NoError(err)
	req.ElementsMatch([]chat.Identity{"alice", "bob"}, participants)

	_, err = conversations.Participants("missing")
	req.ErrorIs(err, errors.ErrNotFound)
}
