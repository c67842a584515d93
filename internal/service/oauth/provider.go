package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"auth-gateway/internal/domain"
	apperrors "auth-gateway/pkg/errors"
	"auth-gateway/pkg/logger"
)

// outboundTimeout bounds every call to a provider endpoint
const outboundTimeout = 30 * time.Second

// Provider is the uniform contract over Google/Kakao/Naver. Run composes
// state consumption, token exchange and profile fetch in that order; a
// replayed or forged callback is rejected before any provider credential is
// spent.
type Provider interface {
	// Name returns the provider identifier (google, kakao, naver)
	Name() string

	// AuthorizationURL issues a state (and a PKCE pair where supported)
	// and assembles the provider's authorization endpoint URL
	AuthorizationURL(ctx context.Context, mode domain.Mode) (*domain.AuthorizationData, error)

	// Exchange trades an authorization code for a provider access token
	Exchange(ctx context.Context, code, state string) (string, error)

	// FetchProfile retrieves and normalizes the provider's user info
	FetchProfile(ctx context.Context, accessToken string) (*domain.ProviderProfile, error)

	// Run executes the full callback flow and tags the result with the
	// mode recovered from the state
	Run(ctx context.Context, code, state string) (*domain.ProviderProfile, error)
}

// baseProvider carries the plumbing shared by all adapters
type baseProvider struct {
	name   string
	conf   *oauth2.Config
	states *StateService
	pkce   *PKCEService // nil when the provider does not support PKCE
	client *http.Client
	log    *logger.Logger
}

func (b *baseProvider) Name() string {
	return b.name
}

// authorizationURL issues state, stores a PKCE verifier when supported and
// builds the redirect URL. Extra options let providers add parameters like
// access_type.
func (b *baseProvider) authorizationURL(ctx context.Context, mode domain.Mode, extra ...oauth2.AuthCodeOption) (*domain.AuthorizationData, error) {
	state, err := b.states.Issue(ctx, mode)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to issue oauth state", err)
	}

	opts := append([]oauth2.AuthCodeOption{}, extra...)

	if b.pkce != nil {
		verifier, err := b.pkce.GenerateVerifier()
		if err != nil {
			return nil, apperrors.NewInternalError("Failed to generate code verifier", err)
		}
		if err := b.pkce.Store(ctx, state, verifier); err != nil {
			return nil, apperrors.NewInternalError("Failed to store code verifier", err)
		}
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", b.pkce.DeriveChallenge(verifier)),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
	}

	b.log.WithFields(map[string]interface{}{
		"provider": b.name,
		"state":    state,
	}).Info("Authorization URL built")

	return &domain.AuthorizationData{
		AuthURL: b.conf.AuthCodeURL(state, opts...),
		State:   state,
	}, nil
}

// exchange POSTs the form-encoded token request. A single attempt only:
// authorization codes are single-use and provider-side idempotency cannot
// be assumed.
func (b *baseProvider) exchange(ctx context.Context, code, state string, extra ...oauth2.AuthCodeOption) (string, error) {
	opts := append([]oauth2.AuthCodeOption{}, extra...)

	if b.pkce != nil {
		verifier, err := b.pkce.TakeVerifier(ctx, state)
		if err != nil {
			return "", apperrors.NewInternalError("Failed to load code verifier", err)
		}
		if verifier != "" {
			opts = append(opts, oauth2.VerifierOption(verifier))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, outboundTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.client)

	token, err := b.conf.Exchange(ctx, code, opts...)
	if err != nil {
		b.log.WithError(err).WithField("provider", b.name).Error("Token exchange failed")
		return "", apperrors.NewProviderExchangeError(
			fmt.Sprintf("%s token exchange failed", b.name), err)
	}

	b.log.WithField("provider", b.name).Info("Token exchange succeeded")
	return token.AccessToken, nil
}

// fetchUserInfo GETs a provider user-info endpoint with a bearer token and
// decodes the JSON body into out. Non-2xx is a hard failure.
func (b *baseProvider) fetchUserInfo(ctx context.Context, url, accessToken string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, outboundTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.NewInternalError("Failed to create profile request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := b.client.Do(req)
	if err != nil {
		return apperrors.NewProviderExchangeError(
			fmt.Sprintf("%s profile fetch failed", b.name), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.NewProviderExchangeError(
			fmt.Sprintf("%s profile fetch failed", b.name),
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewProviderExchangeError(
			fmt.Sprintf("%s profile response was unreadable", b.name), err)
	}

	return nil
}

// runFlow is the shared Run implementation. Ordering is a correctness
// requirement: the state must be consumed before any network call so a
// replayed callback never spends a provider credential.
func runFlow(ctx context.Context, p Provider, b *baseProvider, code, state string) (*domain.ProviderProfile, error) {
	data, err := b.states.Consume(ctx, state)
	if err == ErrStateNotFound {
		return nil, apperrors.NewInvalidStateError()
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to validate oauth state", err)
	}

	accessToken, err := p.Exchange(ctx, code, state)
	if err != nil {
		return nil, err
	}

	profile, err := p.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if profile.ProviderID == "" {
		return nil, apperrors.NewMissingProviderIDError(b.name)
	}

	profile.Mode = data.Mode
	return profile, nil
}
