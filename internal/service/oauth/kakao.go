package oauth

import (
	"context"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"

	"auth-gateway/internal/config"
	"auth-gateway/internal/domain"
	"auth-gateway/pkg/logger"
)

const (
	kakaoAuthURL     = "https://kauth.kakao.com/oauth/authorize"
	kakaoTokenURL    = "https://kauth.kakao.com/oauth/token"
	kakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"
)

// kakaoUserResponse is Kakao's nested user-info shape; the fields this
// service needs live under kakao_account.profile
type kakaoUserResponse struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

// KakaoProvider implements the Provider contract for Kakao with PKCE. The
// client secret is optional for Kakao apps and omitted from the token
// request when unset.
type KakaoProvider struct {
	baseProvider

	// userInfoURL overrides the kapi endpoint in tests
	userInfoURL string
}

// NewKakaoProvider creates a Kakao provider adapter
func NewKakaoProvider(creds config.ProviderCredentials, states *StateService, pkce *PKCEService, client *http.Client, log *logger.Logger) *KakaoProvider {
	return &KakaoProvider{
		baseProvider: baseProvider{
			name: "kakao",
			conf: &oauth2.Config{
				ClientID:     creds.ClientID,
				ClientSecret: creds.ClientSecret,
				RedirectURL:  creds.RedirectURI,
				Endpoint: oauth2.Endpoint{
					AuthURL:   kakaoAuthURL,
					TokenURL:  kakaoTokenURL,
					AuthStyle: oauth2.AuthStyleInParams,
				},
			},
			states: states,
			pkce:   pkce,
			client: client,
			log:    log,
		},
		userInfoURL: kakaoUserInfoURL,
	}
}

// AuthorizationURL builds the Kakao authorization URL
func (p *KakaoProvider) AuthorizationURL(ctx context.Context, mode domain.Mode) (*domain.AuthorizationData, error) {
	return p.authorizationURL(ctx, mode)
}

// Exchange trades the authorization code for an access token
func (p *KakaoProvider) Exchange(ctx context.Context, code, state string) (string, error) {
	return p.exchange(ctx, code, state)
}

// FetchProfile retrieves the Kakao user info and flattens the nested
// kakao_account.profile shape into the common profile fields
func (p *KakaoProvider) FetchProfile(ctx context.Context, accessToken string) (*domain.ProviderProfile, error) {
	var resp kakaoUserResponse
	if err := p.fetchUserInfo(ctx, p.userInfoURL, accessToken, &resp); err != nil {
		return nil, err
	}

	providerID := ""
	if resp.ID != 0 {
		providerID = strconv.FormatInt(resp.ID, 10)
	}

	return &domain.ProviderProfile{
		Provider:     p.name,
		ProviderID:   providerID,
		Email:        resp.KakaoAccount.Email,
		Nickname:     resp.KakaoAccount.Profile.Nickname,
		ProfileImage: resp.KakaoAccount.Profile.ProfileImageURL,
	}, nil
}

// Run executes the full callback flow
func (p *KakaoProvider) Run(ctx context.Context, code, state string) (*domain.ProviderProfile, error) {
	return runFlow(ctx, p, &p.baseProvider, code, state)
}
