package services

import (
	"campus-chat/domain/chat"
	"campus-chat/errors"
	"campus-chat/moderation"
	"campus-chat/repositories"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

// Publisher hands a persisted message to the realtime feed.
type Publisher interface {
	Publish(ctx context.Context, message chat.Message) error
}

// MessagingService is the reference backend for conversations and messages.
type MessagingService struct {
	log              *slog.Logger
	profiles         repositories.IProfileRepository
	conversations    repositories.IConversationRepository
	messages         repositories.IMessageRepository
	publisher        Publisher
	moderator        *moderation.Moderator
	maxContentLength int
	now              func() time.Time
}

// NewMessagingService wires the repositories with the feed. A nil moderator
// stores messages as sent.
func NewMessagingService(log *slog.Logger, profiles repositories.IProfileRepository,
	conversations repositories.IConversationRepository, messages repositories.IMessageRepository,
	publisher Publisher, moderator *moderation.Moderator, maxContentLength int) *MessagingService {
	return &MessagingService{
		log:              log,
		profiles:         profiles,
		conversations:    conversations,
		messages:         messages,
		publisher:        publisher,
		moderator:        moderator,
		maxContentLength: maxContentLength,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// ListConversations returns the visible conversations of identity, most recent activity first.
// A row that cannot be normalized is logged and left out.
func (s *MessagingService) ListConversations(ctx context.Context, identity chat.Identity) ([]chat.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.conversations.ListForMember(identity)
	if err != nil {
		return nil, err
	}
	conversations := make([]chat.Conversation, 0, len(rows))
	for _, row := range rows {
		conversation, err := chat.NormalizeConversation(row)
		if err != nil {
			s.log.Warn("Skipping malformed conversation row", "identity", identity, "error", err)
			continue
		}
		conversations = append(conversations, conversation)
	}
	chat.SortByActivity(conversations)
	return conversations, nil
}

func (s *MessagingService) GetOrCreateConversation(ctx context.Context, a, b chat.Identity) (chat.ConversationID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, identity := range []chat.Identity{a, b} {
		if _, err := s.profiles.GetProfile(identity); err != nil {
			return "", fmt.Errorf("identity %s: %w", identity, err)
		}
	}
	id, created, err := s.conversations.GetOrCreate(a, b, s.now())
	if err != nil {
		return "", err
	}
	if created {
		s.log.Info("Conversation created", "conversation_id", id, "a", a, "b", b)
	}
	return id, nil
}

func (s *MessagingService) MarkRead(ctx context.Context, id chat.ConversationID, identity chat.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.conversations.MarkRead(id, identity, s.now())
}

// HideConversation removes the conversation from identity's list until the next message.
func (s *MessagingService) HideConversation(ctx context.Context, id chat.ConversationID, identity chat.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.conversations.Hide(id, identity)
}

func (s *MessagingService) ListMessages(ctx context.Context, id chat.ConversationID) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.messages.GetMessages(id)
	if err != nil {
		return nil, err
	}
	messages := make([]chat.Message, 0, len(rows))
	for _, row := range rows {
		message, err := chat.NormalizeMessage(row)
		if err != nil {
			s.log.Warn("Skipping malformed message row", "conversation_id", id, "error", err)
			continue
		}
		messages = append(messages, message)
	}
	chat.SortMessages(messages)
	return messages, nil
}

// SendMessage stores the trimmed, censored content and publishes it to the feed.
// Only a participant may write. A publication failure does not fail the send: the
// message is already persisted.
func (s *MessagingService) SendMessage(ctx context.Context, id chat.ConversationID, sender chat.Identity, content string) (chat.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return chat.Receipt{}, err
	}
	cleaned, ok := chat.CleanContent(content)
	if !ok {
		return chat.Receipt{}, fmt.Errorf("%w: empty message", errors.ErrValidation)
	}
	if s.maxContentLength > 0 && utf8.RuneCountInString(cleaned) > s.maxContentLength {
		return chat.Receipt{}, fmt.Errorf("%w: message longer than %d characters", errors.ErrValidation, s.maxContentLength)
	}
	participants, err := s.conversations.Participants(id)
	if err != nil {
		return chat.Receipt{}, err
	}
	if !slices.Contains(participants, sender) {
		return chat.Receipt{}, errors.ErrNotParticipant
	}

	lang := whatlanggo.Detect(cleaned).Lang.Iso6391()
	var censoredWords []string
	if s.moderator != nil {
		cleaned, censoredWords = s.moderator.Censor(cleaned)
		if len(censoredWords) > 0 {
			s.log.Debug("Message censored", "conversation_id", id, "sender", sender, "words", len(censoredWords))
		}
	}

	message := chat.Message{
		ID:             chat.MessageID(uuid.Must(uuid.NewV7()).String()),
		ConversationID: id,
		SenderID:       sender,
		Content:        cleaned,
		CreatedAt:      s.now(),
	}
	err = s.messages.StoreMessage(repositories.DiskMessage{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Author:         message.SenderID,
		Content:        message.Content,
		Lang:           lang,
		CensoredWords:  censoredWords,
		At:             message.CreatedAt,
	})
	if err != nil {
		return chat.Receipt{}, err
	}

	if err = s.publisher.Publish(ctx, message); err != nil {
		s.log.Warn("Unable to publish message", "conversation_id", id, "message_id", message.ID, "error", err)
	}
	return chat.Receipt{ID: message.ID, CreatedAt: message.CreatedAt}, nil
}
