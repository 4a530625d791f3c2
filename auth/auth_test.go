package auth

import (
	"campus-chat/domain/chat"
	"campus-chat/errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// cheap parameters keep the suite fast
var testParams = HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MyPassw0rdIsStr0ng!"

	hash, err := HashPassword(password, testParams)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	// Wrong password
	match, err = ComparePassword("WrongPassword", hash)
	req.NoError(err)
	req.False(match)

	// Garbage hash
	_, err = ComparePassword(password, "$bcrypt$nope")
	req.Error(err)
}

func TestRegistrationValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr error
	}{
		{"Valid request", RegisterRequest{Email: "test@campus.edu", Password: "ComplexPass123!", DisplayName: "Test"}, nil},
		{"Invalid email", RegisterRequest{Email: "notanemail", Password: "ComplexPass123!", DisplayName: "Test"}, errors.ErrValidation},
		{"Missing display name", RegisterRequest{Email: "test@campus.edu", Password: "ComplexPass123!"}, errors.ErrValidation},
		{"Invalid avatar", RegisterRequest{Email: "test@campus.edu", Password: "ComplexPass123!", DisplayName: "Test", Avatar: "not a url"}, errors.ErrValidation},
		{"Password too short", RegisterRequest{Email: "test@campus.edu", Password: "Short1!", DisplayName: "Test"}, errors.ErrValidation},
		{"Missing digit", RegisterRequest{Email: "test@campus.edu", Password: "NoDigitPass!!", DisplayName: "Test"}, errors.ErrInvalidPassword},
		{"Missing special char", RegisterRequest{Email: "test@campus.edu", Password: "NoSpecialChar123", DisplayName: "Test"}, errors.ErrInvalidPassword},
		{"Missing uppercase", RegisterRequest{Email: "test@campus.edu", Password: "nouppercase123!", DisplayName: "Test"}, errors.ErrInvalidPassword},
		{"Password too long", RegisterRequest{Email: "test@campus.edu", Password: strings.Repeat("a", 73), DisplayName: "Test"}, errors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := ValidateRegister(tt.req)
			if tt.wantErr == nil {
				req.NoError(err)
				return
			}
			req.ErrorIs(err, tt.wantErr)
		})
	}
}

func TestToken_RoundTrip(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.GenerateToken("alice", []string{"user"})
	req.NoError(err)

	claims, err := issuer.ValidateToken(token)
	req.NoError(err)
	req.Equal("alice", claims.UserID)
	req.Equal([]string{"user"}, claims.Roles)
}

func TestToken_Rejected(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.GenerateToken("alice", nil)
	req.NoError(err)

	// Signed with another secret
	_, err = NewTokenIssuer("other-secret", time.Hour).ValidateToken(token)
	req.ErrorIs(err, errors.ErrUnauthenticated)

	// Already expired
	expired, err := NewTokenIssuer("test-secret", -time.Minute).GenerateToken("alice", nil)
	req.NoError(err)
	_, err = issuer.ValidateToken(expired)
	req.ErrorIs(err, errors.ErrUnauthenticated)
}

func TestTokenSession(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.GenerateToken("alice", nil)
	req.NoError(err)

	identity, err := NewTokenSession(issuer, token).CurrentIdentity()
	req.NoError(err)
	req.Equal(chat.Identity("alice"), identity)

	_, err = NewTokenSession(issuer, "garbage").CurrentIdentity()
	req.ErrorIs(err, errors.ErrUnauthenticated)

	identity, err = StaticSession("bob").CurrentIdentity()
	req.NoError(err)
	req.Equal(chat.Identity("bob"), identity)
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!", DefaultHashParams)
	}
}
