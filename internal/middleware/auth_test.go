package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/routepulse/server/internal/auth"
)

func newTestMiddleware(t *testing.T) (*auth.TokenService, http.Handler, *bool) {
	t.Helper()
	tokens := auth.NewTokenService("test-secret-at-least-32-characters-long")

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		claims, ok := GetClaims(r.Context())
		require.True(t, ok, "claims must be attached for downstream handlers")
		require.NotEqual(t, uuid.Nil, claims.UserID)
		w.WriteHeader(http.StatusOK)
	})

	handler := AuthMiddleware(tokens, zap.NewNop())(next)
	return tokens, handler, &reached
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	_, handler, reached := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/routes", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached, "handler must not run without a token")
}

func TestAuthMiddleware_WrongScheme(t *testing.T) {
	_, handler, reached := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/routes", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestAuthMiddleware_EmptyBearerToken(t *testing.T) {
	_, handler, reached := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/routes", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	_, handler, reached := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/routes", nil)
	req.Header.Set("Authorization", "Bearer invalid.token.here")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokens, handler, reached := newTestMiddleware(t)

	token, err := tokens.Issue(uuid.New(), "alice", "alice@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/routes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *reached)
}

func TestGetClaims_EmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := GetClaims(req.Context())
	assert.False(t, ok)
}
