package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-gateway/internal/config"
	"auth-gateway/internal/domain"
	apperrors "auth-gateway/pkg/errors"
	"auth-gateway/pkg/logger"
)

func testCreds() config.ProviderCredentials {
	return config.ProviderCredentials{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example.com/callback",
	}
}

// tokenServer returns an httptest server speaking the token endpoint
// protocol, recording every form it receives
func tokenServer(t *testing.T, forms *[]url.Values) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		*forms = append(*forms, r.PostForm)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"provider-access-token","token_type":"bearer"}`))
	}))
}

func TestGoogleProvider_AuthorizationURL(t *testing.T) {
	_, client := setupOAuthRedis(t)
	log := logger.NewNop()
	states := NewStateService(client, log)
	pkce := NewPKCEService(client, log)

	p := NewGoogleProvider(testCreds(), states, pkce, http.DefaultClient, log)

	data, err := p.AuthorizationURL(context.Background(), domain.ModeSignup)
	require.NoError(t, err)
	require.NotEmpty(t, data.State)

	parsed, err := url.Parse(data.AuthURL)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, data.State, q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	require.NotEmpty(t, q.Get("code_challenge"))

	// the stored verifier must derive exactly the challenge that was sent
	verifier, err := pkce.TakeVerifier(context.Background(), data.State)
	require.NoError(t, err)
	require.NotEmpty(t, verifier)
	assert.Equal(t, q.Get("code_challenge"), pkce.DeriveChallenge(verifier))

	// and the state is consumable with the requested mode
	stateData, err := states.Consume(context.Background(), data.State)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeSignup, stateData.Mode)
}

func TestNaverProvider_AuthorizationURLWithoutPKCE(t *testing.T) {
	_, client := setupOAuthRedis(t)
	log := logger.NewNop()
	states := NewStateService(client, log)

	p := NewNaverProvider(testCreds(), states, http.DefaultClient, log)

	data, err := p.AuthorizationURL(context.Background(), domain.ModeLogin)
	require.NoError(t, err)

	parsed, err := url.Parse(data.AuthURL)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Empty(t, q.Get("code_challenge"))
	assert.Empty(t, q.Get("code_challenge_method"))
	assert.Equal(t, data.State, q.Get("state"))
}

func TestKakaoProvider_Run(t *testing.T) {
	_, client := setupOAuthRedis(t)
	log := logger.NewNop()
	states := NewStateService(client, log)
	pkce := NewPKCEService(client, log)

	var forms []url.Values
	tokenSrv := tokenServer(t, &forms)
	defer tokenSrv.Close()

	userSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer provider-access-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 12345,
			"kakao_account": {
				"email": "user@kakao.com",
				"profile": {
					"nickname": "길동이",
					"profile_image_url": "https://k.example.com/p.png"
				}
			}
		}`))
	}))
	defer userSrv.Close()

	p := NewKakaoProvider(testCreds(), states, pkce, http.DefaultClient, log)
	p.conf.Endpoint.TokenURL = tokenSrv.URL
	p.userInfoURL = userSrv.URL

	data, err := p.AuthorizationURL(context.Background(), domain.ModeLogin)
	require.NoError(t, err)

	profile, err := p.Run(context.Background(), "auth-code", data.State)
	require.NoError(t, err)

	assert.Equal(t, "kakao", profile.Provider)
	assert.Equal(t, "12345", profile.ProviderID)
	assert.Equal(t, "user@kakao.com", profile.Email)
	assert.Equal(t, "길동이", profile.Nickname)
	assert.Equal(t, "https://k.example.com/p.png", profile.ProfileImage)
	assert.Equal(t, domain.ModeLogin, profile.Mode)

	// the token request carried the code and the stored PKCE verifier
	require.Len(t, forms, 1)
	assert.Equal(t, "auth-code", forms[0].Get("code"))
	assert.NotEmpty(t, forms[0].Get("code_verifier"))
}

func TestKakaoProvider_MissingProviderID(t *testing.T) {
	_, client := setupOAuthRedis(t)
	log := logger.NewNop()
	states := NewStateService(client, log)
	pkce := NewPKCEService(client, log)

	var forms []url.Values
	tokenSrv := tokenServer(t, &forms)
	defer tokenSrv.Close()

	userSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 0}`))
	}))
	defer userSrv.Close()

	p := NewKakaoProvider(testCreds(), states, pkce, http.DefaultClient, log)
	p.conf.Endpoint.TokenURL = tokenSrv.URL
	p.userInfoURL = userSrv.URL

	data, err := p.AuthorizationURL(context.Background(), domain.ModeLogin)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), "auth-code", data.State)
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeMissingProviderID, appErr.Type)
}

func TestNaverProvider_Run(t *testing.T) {
	_, client := setupOAuthRedis(t)
	log := logger.NewNop()
	states := NewStateService(client, log)

	var forms []url.Values
	tokenSrv := tokenServer(t, &forms)
	defer tokenSrv.Close()

	userSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"resultcode": "00",
			"message": "success",
			"response": {
				"id": "naver-abc",
				"email": "user@naver.com",
				"name": "홍길동",
				"nickname": "길동",
				"profile_image": "https://n.example.com/p.png"
			}
		}`))
	}))
	defer userSrv.Close()

	p := NewNaverProvider(testCreds(), states, http.DefaultClient, log)
	p.conf.Endpoint.TokenURL = tokenSrv.URL
	p.userInfoURL = userSrv.URL

	data, err := p.AuthorizationURL(context.Background(), domain.ModeSignup)
	require.NoError(t, err)

	profile, err := p.Run(context.Background(), "auth-code", data.State)
	require.NoError(t, err)

	assert.Equal(t, "naver", profile.Provider)
	assert.Equal(t, "naver-abc", profile.ProviderID)
	assert.Equal(t, "홍길동", profile.Name)
	assert.Equal(t, domain.ModeSignup, profile.Mode)

	// Naver repeats the state in the token request and never sends PKCE
	require.Len(t, forms, 1)
	assert.Equal(t, data.State, forms[0].Get("state"))
	assert.Empty(t, forms[0].Get("code_verifier"))
}

func TestRunFlow_InvalidStateBeforeAnyNetworkCall(t *testing.T) {
	_, client := setupOAuthRedis(t)
	log := logger.NewNop()
	states := NewStateService(client, log)
	pkce := NewPKCEService(client, log)

	calls := 0
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"t","token_type":"bearer"}`))
	}))
	defer tokenSrv.Close()

	p := NewKakaoProvider(testCreds(), states, pkce, http.DefaultClient, log)
	p.conf.Endpoint.TokenURL = tokenSrv.URL

	_, err := p.Run(context.Background(), "auth-code", "forged-state")
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeInvalidState, appErr.Type)

	// the single-use authorization code was never spent
	assert.Equal(t, 0, calls)
}

func TestRunFlow_StateConsumedEvenOnExchangeFailure(t *testing.T) {
	_, client := setupOAuthRedis(t)
	log := logger.NewNop()
	states := NewStateService(client, log)
	pkce := NewPKCEService(client, log)

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer tokenSrv.Close()

	p := NewKakaoProvider(testCreds(), states, pkce, http.DefaultClient, log)
	p.conf.Endpoint.TokenURL = tokenSrv.URL

	data, err := p.AuthorizationURL(context.Background(), domain.ModeLogin)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), "auth-code", data.State)
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeProviderExchange, appErr.Type)

	// the state was still consumed; a retry is a replay
	_, err = states.Consume(context.Background(), data.State)
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestGoogleProvider_FetchProfile(t *testing.T) {
	_, client := setupOAuthRedis(t)
	log := logger.NewNop()
	states := NewStateService(client, log)
	pkce := NewPKCEService(client, log)

	userSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "google-123",
			"email": "user@gmail.com",
			"name": "Alice",
			"picture": "https://g.example.com/p.png"
		}`))
	}))
	defer userSrv.Close()

	p := NewGoogleProvider(testCreds(), states, pkce, http.DefaultClient, log)
	p.userinfoEndpoint = userSrv.URL

	profile, err := p.FetchProfile(context.Background(), "provider-access-token")
	require.NoError(t, err)

	assert.Equal(t, "google", profile.Provider)
	assert.Equal(t, "google-123", profile.ProviderID)
	assert.Equal(t, "user@gmail.com", profile.Email)
	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, "https://g.example.com/p.png", profile.ProfileImage)
}
