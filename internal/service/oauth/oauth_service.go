package oauth

import (
	"context"
	"strings"
	"time"

	"auth-gateway/internal/domain"
	"auth-gateway/internal/service"
	"auth-gateway/internal/service/token"
	apperrors "auth-gateway/pkg/errors"
	"auth-gateway/pkg/logger"
)

// oauthService orchestrates the provider adapters, the identity store and
// the token services into the login/signup/refresh/logout flows
type oauthService struct {
	providers map[string]Provider
	users     service.UserService
	jwt       *token.JWTService
	signup    *token.SignupTokenService
	store     *token.RefreshTokenStore
	log       *logger.Logger
}

// NewOAuthService creates the orchestrator over the given provider adapters
func NewOAuthService(
	providers []Provider,
	users service.UserService,
	jwtService *token.JWTService,
	signupTokens *token.SignupTokenService,
	store *token.RefreshTokenStore,
	log *logger.Logger,
) service.OAuthService {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &oauthService{
		providers: byName,
		users:     users,
		jwt:       jwtService,
		signup:    signupTokens,
		store:     store,
		log:       log,
	}
}

func (s *oauthService) provider(name string) (Provider, error) {
	p, ok := s.providers[strings.ToLower(name)]
	if !ok {
		return nil, apperrors.NewNotFoundError("Unknown oauth provider: " + name)
	}
	return p, nil
}

// Authorize builds the provider redirect URL for the requested mode
func (s *oauthService) Authorize(ctx context.Context, provider string, mode domain.Mode) (*domain.AuthorizationData, error) {
	p, err := s.provider(provider)
	if err != nil {
		return nil, err
	}
	return p.AuthorizationURL(ctx, mode)
}

// Callback runs the provider flow and branches on whether the identity
// exists and which mode the client chose before the redirect.
//
// An existing identity always logs in, including under signup mode; the
// profile fields are refreshed either way. A missing identity under signup
// mode is created on the spot without issuing tokens; under plain login it
// gets a signup token and no database row.
func (s *oauthService) Callback(ctx context.Context, provider, code, state string) (*domain.CallbackResult, error) {
	if code == "" || state == "" {
		return nil, apperrors.NewValidationError("code and state are required", nil)
	}

	p, err := s.provider(provider)
	if err != nil {
		return nil, err
	}

	profile, err := p.Run(ctx, code, state)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.FindUser(ctx, profile.Provider, profile.ProviderID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to look up identity", err)
	}

	if existing != nil {
		result, err := s.login(ctx, profile, nil)
		if err != nil {
			return nil, err
		}
		return &domain.CallbackResult{
			Outcome: domain.OutcomeAuthenticated,
			User:    result.User,
			Tokens:  result.Tokens,
		}, nil
	}

	if profile.Mode == domain.ModeSignup {
		user, err := s.users.FindOrCreate(ctx, profile, nil)
		if err != nil {
			return nil, apperrors.NewInternalError("Failed to create identity", err)
		}
		s.log.WithFields(map[string]interface{}{
			"provider": user.Provider,
			"user_id":  user.ID,
		}).Info("Signup completed via callback")
		return &domain.CallbackResult{
			Outcome: domain.OutcomeSignupComplete,
			User:    user,
		}, nil
	}

	signupToken, err := s.signup.Issue(profile)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to issue signup token", err)
	}
	s.log.WithField("provider", profile.Provider).Info("New user, signup token issued")
	return &domain.CallbackResult{
		Outcome:     domain.OutcomeNeedsSignup,
		SignupToken: signupToken,
	}, nil
}

// Signup completes a deferred registration from a signup token. An identity
// that appeared in the meantime is updated and logged in rather than
// rejected, matching the callback path.
func (s *oauthService) Signup(ctx context.Context, signupToken string, age *int) (*domain.AuthenticatedResult, error) {
	claims, err := s.signup.Validate(signupToken)
	if err != nil {
		return nil, apperrors.NewInvalidTokenError("Invalid or expired signup token")
	}

	profile := s.signup.ExtractProfile(claims)
	return s.login(ctx, profile, age)
}

// login refreshes or creates the identity for the profile and issues a
// token pair, persisting the refresh token
func (s *oauthService) login(ctx context.Context, profile *domain.ProviderProfile, age *int) (*domain.AuthenticatedResult, error) {
	user, err := s.users.FindOrCreate(ctx, profile, age)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to persist identity", err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"provider": user.Provider,
		"user_id":  user.ID,
	}).Info("User authenticated")

	return &domain.AuthenticatedResult{User: user, Tokens: tokens}, nil
}

func (s *oauthService) issueTokens(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	access, err := s.jwt.IssueAccess(user.ID, user.Provider, user.EmailOrEmpty(), user.NameOrEmpty(), user.Age)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to issue access token", err)
	}

	refresh, err := s.jwt.IssueRefresh(user.ID, user.Provider, user.EmailOrEmpty(), user.NameOrEmpty(), user.Age)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to issue refresh token", err)
	}

	if err := s.store.Save(ctx, user.ID, refresh); err != nil {
		return nil, apperrors.NewInternalError("Failed to persist refresh token", err)
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates a refresh token against both the signature and the
// store, re-reads the identity so fresh claims are issued, then rotates
func (s *oauthService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthenticatedResult, error) {
	claims, err := s.jwt.Verify(refreshToken)
	if err != nil {
		return nil, apperrors.NewInvalidTokenError("Invalid or expired refresh token")
	}
	if claims.TokenType != token.TokenTypeRefresh {
		s.log.WithField("user_id", claims.UserID).Warn("Access token presented as refresh token")
		return nil, apperrors.NewInvalidTokenError("Invalid or expired refresh token")
	}

	ownerID, err := s.store.Validate(ctx, refreshToken)
	if err == token.ErrRefreshTokenNotFound {
		// expired, rotated away, or invalidated by a logout; distinct from
		// the owner-disagreement case below
		return nil, apperrors.NewInvalidTokenError("Refresh token has been invalidated")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to validate refresh token", err)
	}
	if ownerID != claims.UserID {
		s.log.WithFields(map[string]interface{}{
			"claim_user_id": claims.UserID,
			"store_user_id": ownerID,
		}).Warn("Refresh token owner mismatch")
		return nil, apperrors.NewTokenStoreMismatchError()
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load identity", err)
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError("User no longer exists")
	}

	access, err := s.jwt.IssueAccess(user.ID, user.Provider, user.EmailOrEmpty(), user.NameOrEmpty(), user.Age)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to issue access token", err)
	}
	newRefresh, err := s.jwt.IssueRefresh(user.ID, user.Provider, user.EmailOrEmpty(), user.NameOrEmpty(), user.Age)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to issue refresh token", err)
	}

	if err := s.store.Rotate(ctx, user.ID, refreshToken, newRefresh); err != nil {
		return nil, apperrors.NewInternalError("Failed to rotate refresh token", err)
	}

	return &domain.AuthenticatedResult{
		User:   user,
		Tokens: &domain.TokenPair{AccessToken: access, RefreshToken: newRefresh},
	}, nil
}

// Logout resolves the caller from whichever token is available and
// invalidates every refresh token. Failures are logged, never surfaced.
func (s *oauthService) Logout(ctx context.Context, refreshToken, accessToken string) {
	userID := s.resolveUserID(ctx, refreshToken, accessToken)
	if userID == 0 {
		s.log.Info("Logout without resolvable user, clearing cookie only")
		return
	}

	if err := s.store.InvalidateAll(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error(
			"Failed to invalidate refresh tokens during logout")
		return
	}

	s.log.WithField("user_id", userID).Info("User logged out")
}

// resolveUserID prefers the refresh cookie, falling back to the bearer
// access token. Either may be absent, expired or garbage.
func (s *oauthService) resolveUserID(ctx context.Context, refreshToken, accessToken string) int64 {
	if refreshToken != "" {
		if userID, err := s.jwt.ExtractUserID(refreshToken); err == nil {
			return userID
		}
		// an expired refresh token may still exist in the store
		if userID, err := s.store.Validate(ctx, refreshToken); err == nil {
			return userID
		}
	}
	if accessToken != "" {
		if userID, err := s.jwt.ExtractUserID(accessToken); err == nil {
			return userID
		}
	}
	return 0
}

// ForceLogout invalidates every refresh token of a user by explicit id
func (s *oauthService) ForceLogout(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return apperrors.NewValidationError("userID must be positive", nil)
	}
	if err := s.store.InvalidateAll(ctx, userID); err != nil {
		return apperrors.NewInternalError("Failed to invalidate refresh tokens", err)
	}
	s.log.WithField("user_id", userID).Info("User force-logged out")
	return nil
}

// RefreshTTL is the refresh-token lifetime, used for cookie Max-Age
func (s *oauthService) RefreshTTL() time.Duration {
	return s.jwt.RefreshTTL()
}
