package service

import (
	"testing"
	"time"

	"backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTokenStore struct {
	revoked map[string]time.Duration
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{revoked: make(map[string]time.Duration)}
}

func (s *fakeTokenStore) Blacklist(token string, ttl time.Duration) error {
	s.revoked[token] = ttl
	return nil
}

func (s *fakeTokenStore) IsBlacklisted(token string) (bool, error) {
	_, ok := s.revoked[token]
	return ok, nil
}

type authFixture struct {
	users  *fakeUserRepo
	tokens *fakeTokenStore
	svc    AuthService
}

func setupAuth(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:  newFakeUserRepo(),
		tokens: newFakeTokenStore(),
	}
	f.svc = NewAuthService(f.users, f.tokens, zap.NewNop())
	return f
}

func TestRegisterLoginLogout(t *testing.T) {
	f := setupAuth(t)

	user := &models.User{Name: "Maria Silva", Email: "maria@example.com"}
	created, err := f.svc.Register(user, "senha-forte")
	require.NoError(t, err)
	assert.NotEmpty(t, created.PasswordHash)
	assert.NotEqual(t, "senha-forte", created.PasswordHash)

	token, expiresAt, err := f.svc.Login("maria@example.com", "senha-forte")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	require.NoError(t, f.svc.Logout(token))

	revoked, err := f.tokens.IsBlacklisted(token)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Greater(t, f.tokens.revoked[token], time.Duration(0))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := setupAuth(t)

	_, err := f.svc.Register(&models.User{Name: "Maria Silva", Email: "maria@example.com"}, "senha-forte")
	require.NoError(t, err)

	_, err = f.svc.Register(&models.User{Name: "Outra Maria", Email: "maria@example.com"}, "outra-senha")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := setupAuth(t)

	_, _, err := f.svc.Login("ninguem@example.com", "senha")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := setupAuth(t)

	_, err := f.svc.Register(&models.User{Name: "Maria Silva", Email: "maria@example.com"}, "senha-forte")
	require.NoError(t, err)

	_, _, err = f.svc.Login("maria@example.com", "senha-errada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// A validly-signed token that carries no exp claim must be rejected
// instead of blacklisted with a garbage TTL.
func TestLogout_TokenWithoutExpiryIsRejected(t *testing.T) {
	f := setupAuth(t)

	claims := &models.Claims{UserID: 1, Email: "maria@example.com"}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(GetJWTSecret())
	require.NoError(t, err)

	err = f.svc.Logout(tokenString)
	require.Error(t, err)
	assert.Empty(t, f.tokens.revoked)
}

func TestLogout_GarbageToken(t *testing.T) {
	f := setupAuth(t)

	err := f.svc.Logout("not.a.token")
	require.Error(t, err)
	assert.Empty(t, f.tokens.revoked)
}
