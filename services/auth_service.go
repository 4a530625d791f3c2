package services

import (
	"campus-chat/auth"
	"campus-chat/domain/chat"
	"campus-chat/errors"
	"campus-chat/repositories"
	"fmt"
	"log/slog"
)

type IAuthService interface {
	Login(email, password string) (Token, error)
	Register(req auth.RegisterRequest) (Token, error)
}

// ProfileIndexer receives every newly registered profile.
type ProfileIndexer interface {
	Index(profile chat.Profile) error
}

type AuthService struct {
	log            *slog.Logger
	userRepository repositories.IUserRepository
	issuer         auth.TokenIssuer
	hashParams     auth.HashParams
	indexer        ProfileIndexer
}

type Token string

func (t Token) String() string {
	return string(t)
}

func NewAuthService(log *slog.Logger, repo repositories.IUserRepository, issuer auth.TokenIssuer,
	hashParams auth.HashParams, indexer ProfileIndexer) IAuthService {
	return &AuthService{
		log:            log,
		userRepository: repo,
		issuer:         issuer,
		hashParams:     hashParams,
		indexer:        indexer,
	}
}

func (s *AuthService) Register(req auth.RegisterRequest) (Token, error) {
	// 1. Validate before any expensive cryptographic operation
	if err := auth.ValidateRegister(req); err != nil {
		return "", err
	}

	// 2. The repository never sees the plain password
	hashedPassword, err := auth.HashPassword(req.Password, s.hashParams)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the account and its public profile
	userID, err := s.userRepository.CreateUser(repositories.NewUser{
		Email:        req.Email,
		PasswordHash: hashedPassword,
		DisplayName:  req.DisplayName,
		Affiliation:  req.Affiliation,
		Avatar:       req.Avatar,
	})
	if err != nil {
		return "", err
	}

	// 4. A stale index only hides the user from search, the profile is stored
	profile := chat.Profile{ID: userID, DisplayName: req.DisplayName, Avatar: req.Avatar, Affiliation: req.Affiliation}
	if err = s.indexer.Index(profile); err != nil {
		s.log.Warn("Unable to index profile", "identity", userID, "error", err)
	}

	s.log.Info("User registered", "identity", userID)
	return s.generate(userID, []string{"user"})
}

func (s *AuthService) Login(email, password string) (Token, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Same error as a wrong password, no user enumeration
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	return s.generate(user.ID, user.Roles)
}

func (s *AuthService) generate(userID chat.Identity, roles []string) (Token, error) {
	token, err := s.issuer.GenerateToken(userID, roles)
	if err != nil {
		return "", err
	}
	return Token(token), nil
}
