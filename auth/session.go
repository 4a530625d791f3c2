package auth

import (
	"campus-chat/domain/chat"
)

// TokenSession is the session of a client holding a token.
// The token is validated on every call so an expired session stops resolving.
type TokenSession struct {
	issuer TokenIssuer
	token  string
}

func NewTokenSession(issuer TokenIssuer, token string) *TokenSession {
	return &TokenSession{issuer: issuer, token: token}
}

func (s *TokenSession) CurrentIdentity() (chat.Identity, error) {
	claims, err := s.issuer.ValidateToken(s.token)
	if err != nil {
		return "", err
	}
	return chat.Identity(claims.UserID), nil
}

// StaticSession always resolves to the same identity.
type StaticSession chat.Identity

func (s StaticSession) CurrentIdentity() (chat.Identity, error) {
	return chat.Identity(s), nil
}
