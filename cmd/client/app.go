package main

import (
	"campus-chat/auth"
	"campus-chat/client"
	"campus-chat/domain/chat"
	"campus-chat/infrastructure/index"
	"campus-chat/moderation"
	"campus-chat/repositories"
	"campus-chat/runtime"
	"campus-chat/runtime/workers"
	"campus-chat/services"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// app is the reference backend running in process, next to the chat core.
type app struct {
	config       Config
	log          *slog.Logger
	db           *badger.DB
	index        *index.ProfileIndex
	orchestrator *runtime.Orchestrator
	issuer       auth.TokenIssuer
	auth         services.IAuthService
	directory    *services.DirectoryService
	messaging    *services.MessagingService
}

func newApp(ctx context.Context, config Config, log *slog.Logger) (*app, error) {
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}

	profileIndex, err := index.NewProfileIndex(config.BlugeFilepath, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index opening failed: %w", err)
	}

	dictionary, err := moderation.LoadEmbedded()
	if err != nil {
		_ = profileIndex.Close()
		_ = db.Close()
		return nil, err
	}
	moderator, err := moderation.NewModerator(dictionary.Words, config.censorChar(), log)
	if err != nil {
		_ = profileIndex.Close()
		_ = db.Close()
		return nil, err
	}

	orchestrator := runtime.NewOrchestrator(log,
		workers.NewSupervisor(log, config.RestartInterval),
		runtime.NewRegistry(),
		config.BufferSize,
		config.SubscriptionBufferSize,
		config.SinkTimeout)
	orchestrator.Start(ctx)

	profiles := repositories.NewProfileRepository(db)
	issuer := auth.NewTokenIssuer(config.AuthSecret, config.AuthTokenDuration)
	a := &app{
		config:       config,
		log:          log,
		db:           db,
		index:        profileIndex,
		orchestrator: orchestrator,
		issuer:       issuer,
		auth:         services.NewAuthService(log, repositories.NewUserRepository(db), issuer, auth.DefaultHashParams, profileIndex),
		directory:    services.NewDirectoryService(log, profiles, profileIndex),
		messaging: services.NewMessagingService(log, profiles,
			repositories.NewConversationRepository(db, log),
			repositories.NewMessageRepository(db, log, config.LimitMessages),
			orchestrator.Feed(), moderator, config.MaxContentLength),
	}

	count, err := a.directory.Reindex(profileIndex)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("reindexing failed: %w", err)
	}
	log.Debug("Directory ready", "profiles", count, "languages", dictionary.Languages)
	return a, nil
}

// controller builds the chat core for the session carried by token.
func (a *app) controller(token string) (*client.Controller, chat.Identity, error) {
	session := auth.NewTokenSession(a.issuer, token)
	me, err := session.CurrentIdentity()
	if err != nil {
		return nil, "", err
	}
	return client.NewController(a.log, client.ControllerConfig{
		Session:          session,
		Directory:        a.directory,
		Conversations:    a.messaging,
		Messages:         a.messaging,
		Realtime:         a.orchestrator.Feed(),
		NoticeBufferSize: a.config.NoticeBufferSize,
	}), me, nil
}

func (a *app) close() {
	a.orchestrator.Stop()
	if err := a.index.Close(); err != nil {
		a.log.Warn("Closing index failed", "error", err)
	}
	a.log.Debug("Closing BadgerDB...")
	_ = a.db.Close()
}
