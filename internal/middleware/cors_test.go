package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"auth-gateway/pkg/logger"
)

func doCORSRequest(config *CORSConfig, method, origin string) (*httptest.ResponseRecorder, bool) {
	called := false
	handler := CORS(config, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/api/v1/news/search", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec, called
}

func TestCORS_AllowedOrigin(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://app.example.com"}

	rec, called := doCORSRequest(config, http.MethodGet, "https://app.example.com")

	assert.True(t, called)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://app.example.com"}

	rec, called := doCORSRequest(config, http.MethodGet, "https://evil.example.com")

	// the request still runs; the browser enforces the missing header
	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_WildcardEchoesOrigin(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"*"}

	// credentials mode forbids a literal *, so the origin is echoed back
	rec, _ := doCORSRequest(config, http.MethodGet, "https://any.example.com")
	assert.Equal(t, "https://any.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://app.example.com"}

	rec, called := doCORSRequest(config, http.MethodOptions, "https://app.example.com")

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
