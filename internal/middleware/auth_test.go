package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-gateway/internal/service/token"
	"auth-gateway/pkg/errors"
	"auth-gateway/pkg/logger"
)

func newTestJWTService() *token.JWTService {
	return token.NewJWTService("middleware-test-secret", 30*time.Minute, time.Hour, logger.NewNop())
}

// claimsCapturingHandler records whether it ran and the claims it saw
type claimsCapturingHandler struct {
	called bool
	claims *token.SessionClaims
}

func (h *claimsCapturingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.claims = ClaimsFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func doAuthRequest(t *testing.T, tokens *token.JWTService, authHeader string) (*httptest.ResponseRecorder, *claimsCapturingHandler) {
	t.Helper()

	next := &claimsCapturingHandler{}
	handler := Auth(tokens, logger.NewNop())(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec, next
}

func TestAuth_ValidAccessToken(t *testing.T) {
	tokens := newTestJWTService()
	access, err := tokens.IssueAccess(42, "kakao", "user@kakao.com", "홍길동", nil)
	require.NoError(t, err)

	rec, next := doAuthRequest(t, tokens, "Bearer "+access)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, next.called)
	require.NotNil(t, next.claims)
	assert.Equal(t, int64(42), next.claims.UserID)
	assert.Equal(t, "kakao", next.claims.Provider)
}

func TestAuth_Rejections(t *testing.T) {
	tokens := newTestJWTService()

	refresh, err := tokens.IssueRefresh(42, "kakao", "", "", nil)
	require.NoError(t, err)

	otherKey := token.NewJWTService("another-secret-entirely", 30*time.Minute, time.Hour, logger.NewNop())
	foreign, err := otherKey.IssueAccess(42, "kakao", "", "", nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not a bearer scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty bearer token", header: "Bearer "},
		{name: "garbage token", header: "Bearer not.a.jwt"},
		{name: "wrong signing key", header: "Bearer " + foreign},
		{name: "refresh token as access token", header: "Bearer " + refresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, next := doAuthRequest(t, tokens, tt.header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, next.called)

			var body errors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, errors.ErrorTypeAuthentication, body.Error.Type)
		})
	}
}

func TestAuth_ExpiredAccessToken(t *testing.T) {
	// issue with an already-elapsed lifetime
	expiring := token.NewJWTService("middleware-test-secret", -time.Minute, time.Hour, logger.NewNop())
	access, err := expiring.IssueAccess(42, "kakao", "", "", nil)
	require.NoError(t, err)

	rec, next := doAuthRequest(t, newTestJWTService(), "Bearer "+access)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, next.called)
}

func TestClaimsFromContext_Absent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, ClaimsFromContext(req.Context()))
}

func TestRequestID(t *testing.T) {
	var inner string
	handler := RequestID(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner, _ = r.Context().Value(RequestIDContextKey).(string)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, inner)
	assert.Equal(t, inner, rec.Header().Get("X-Request-ID"))
}
