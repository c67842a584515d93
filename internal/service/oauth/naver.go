package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"auth-gateway/internal/config"
	"auth-gateway/internal/domain"
	"auth-gateway/pkg/logger"
)

const (
	naverAuthURL     = "https://nid.naver.com/oauth2.0/authorize"
	naverTokenURL    = "https://nid.naver.com/oauth2.0/token"
	naverUserInfoURL = "https://openapi.naver.com/v1/nid/me"
)

// naverUserResponse wraps the profile under a "response" envelope
type naverUserResponse struct {
	ResultCode string `json:"resultcode"`
	Message    string `json:"message"`
	Response   struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		Name         string `json:"name"`
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"response"`
}

// NaverProvider implements the Provider contract for Naver. Naver does not
// support PKCE; the state parameter is repeated in the token request
// instead.
type NaverProvider struct {
	baseProvider

	// userInfoURL overrides the openapi endpoint in tests
	userInfoURL string
}

// NewNaverProvider creates a Naver provider adapter
func NewNaverProvider(creds config.ProviderCredentials, states *StateService, client *http.Client, log *logger.Logger) *NaverProvider {
	return &NaverProvider{
		baseProvider: baseProvider{
			name: "naver",
			conf: &oauth2.Config{
				ClientID:     creds.ClientID,
				ClientSecret: creds.ClientSecret,
				RedirectURL:  creds.RedirectURI,
				Endpoint: oauth2.Endpoint{
					AuthURL:   naverAuthURL,
					TokenURL:  naverTokenURL,
					AuthStyle: oauth2.AuthStyleInParams,
				},
			},
			states: states,
			client: client,
			log:    log,
		},
		userInfoURL: naverUserInfoURL,
	}
}

// AuthorizationURL builds the Naver authorization URL
func (p *NaverProvider) AuthorizationURL(ctx context.Context, mode domain.Mode) (*domain.AuthorizationData, error) {
	return p.authorizationURL(ctx, mode)
}

// Exchange trades the authorization code for an access token. Naver
// requires the state in the token request body.
func (p *NaverProvider) Exchange(ctx context.Context, code, state string) (string, error) {
	return p.exchange(ctx, code, state, oauth2.SetAuthURLParam("state", state))
}

// FetchProfile retrieves the Naver user info and unwraps the response
// envelope
func (p *NaverProvider) FetchProfile(ctx context.Context, accessToken string) (*domain.ProviderProfile, error) {
	var resp naverUserResponse
	if err := p.fetchUserInfo(ctx, p.userInfoURL, accessToken, &resp); err != nil {
		return nil, err
	}

	return &domain.ProviderProfile{
		Provider:     p.name,
		ProviderID:   resp.Response.ID,
		Email:        resp.Response.Email,
		Name:         resp.Response.Name,
		Nickname:     resp.Response.Nickname,
		ProfileImage: resp.Response.ProfileImage,
	}, nil
}

// Run executes the full callback flow
func (p *NaverProvider) Run(ctx context.Context, code, state string) (*domain.ProviderProfile, error) {
	return runFlow(ctx, p, &p.baseProvider, code, state)
}
