package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"auth-gateway/internal/config"
	"auth-gateway/internal/domain"
	apperrors "auth-gateway/pkg/errors"
	"auth-gateway/pkg/logger"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
)

// GoogleProvider implements the Provider contract for Google with PKCE
type GoogleProvider struct {
	baseProvider

	// userinfoEndpoint overrides the googleapis base URL in tests
	userinfoEndpoint string
}

// NewGoogleProvider creates a Google provider adapter
func NewGoogleProvider(creds config.ProviderCredentials, states *StateService, pkce *PKCEService, client *http.Client, log *logger.Logger) *GoogleProvider {
	return &GoogleProvider{
		baseProvider: baseProvider{
			name: "google",
			conf: &oauth2.Config{
				ClientID:     creds.ClientID,
				ClientSecret: creds.ClientSecret,
				RedirectURL:  creds.RedirectURI,
				Scopes:       []string{"email", "profile"},
				Endpoint: oauth2.Endpoint{
					AuthURL:   googleAuthURL,
					TokenURL:  googleTokenURL,
					AuthStyle: oauth2.AuthStyleInParams,
				},
			},
			states: states,
			pkce:   pkce,
			client: client,
			log:    log,
		},
	}
}

// AuthorizationURL builds the Google authorization URL with offline access
// and a forced consent screen, matching the registered flow
func (p *GoogleProvider) AuthorizationURL(ctx context.Context, mode domain.Mode) (*domain.AuthorizationData, error) {
	return p.authorizationURL(ctx, mode,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the authorization code for an access token
func (p *GoogleProvider) Exchange(ctx context.Context, code, state string) (string, error) {
	return p.exchange(ctx, code, state)
}

// FetchProfile retrieves the Google userinfo through the official API
// client. Google's response is flat: id, email, name, picture.
func (p *GoogleProvider) FetchProfile(ctx context.Context, accessToken string) (*domain.ProviderProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, outboundTimeout)
	defer cancel()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if p.userinfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(p.userinfoEndpoint))
	}
	svc, err := goauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to create userinfo client", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		p.log.WithError(err).Error("Google profile fetch failed")
		return nil, apperrors.NewProviderExchangeError("google profile fetch failed", err)
	}

	return &domain.ProviderProfile{
		Provider:     p.name,
		ProviderID:   info.Id,
		Email:        info.Email,
		Name:         info.Name,
		ProfileImage: info.Picture,
	}, nil
}

// Run executes the full callback flow
func (p *GoogleProvider) Run(ctx context.Context, code, state string) (*domain.ProviderProfile, error) {
	return runFlow(ctx, p, &p.baseProvider, code, state)
}
