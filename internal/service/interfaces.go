package service

import (
	"context"
	"time"

	"auth-gateway/internal/domain"
)

// OAuthService drives the login/signup/refresh/logout state machine
type OAuthService interface {
	// Authorize issues a state (and PKCE pair where supported) and returns
	// the provider redirect URL
	Authorize(ctx context.Context, provider string, mode domain.Mode) (*domain.AuthorizationData, error)

	// Callback handles the provider redirect: state validation, token
	// exchange, profile fetch and the login/signup branch
	Callback(ctx context.Context, provider, code, state string) (*domain.CallbackResult, error)

	// Signup completes a deferred registration using a signup token
	Signup(ctx context.Context, signupToken string, age *int) (*domain.AuthenticatedResult, error)

	// Refresh validates and rotates a refresh token, returning a new pair
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthenticatedResult, error)

	// Logout invalidates the caller's refresh tokens best-effort; it never
	// fails the client-visible flow
	Logout(ctx context.Context, refreshToken, accessToken string)

	// ForceLogout invalidates every refresh token of a user by explicit id
	ForceLogout(ctx context.Context, userID int64) error

	// RefreshTTL is the refresh-token lifetime, used for cookie Max-Age
	RefreshTTL() time.Duration
}

// UserService defines identity lookup and mutation operations
type UserService interface {
	// FindUser returns the identity for a (provider, providerId) pair, or
	// nil when none exists. Never creates.
	FindUser(ctx context.Context, provider, providerID string) (*domain.User, error)

	// FindByID returns the identity with the given id, or nil
	FindByID(ctx context.Context, id int64) (*domain.User, error)

	// Save persists an identity
	Save(ctx context.Context, user *domain.User) (*domain.User, error)

	// FindOrCreate returns the identity for the profile's pair, creating
	// it when absent and self-healing duplicate rows when found
	FindOrCreate(ctx context.Context, profile *domain.ProviderProfile, age *int) (*domain.User, error)
}

// NewsService aggregates articles from RSS feeds and the search API
type NewsService interface {
	// Search returns articles for a category (RSS fan-out) or a free-text
	// query (search API), paged by display/start
	Search(ctx context.Context, query string, display, start int) ([]domain.NewsArticle, error)

	// Latest aggregates a fixed set of categories, deduplicated and
	// truncated to display
	Latest(ctx context.Context, display int) ([]domain.NewsArticle, error)
}

// Services aggregates all service interfaces
type Services struct {
	OAuth OAuthService
	User  UserService
	News  NewsService
}
