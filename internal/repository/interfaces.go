package repository

import (
	"context"

	"auth-gateway/internal/domain"
)

// UserRepository defines the identity store contract. FindByProviderID
// returns every matching row because duplicates can exist transiently (two
// concurrent first logins); DeleteDuplicates is the repair half of that
// tolerance.
type UserRepository interface {
	// FindByProviderID returns all identities for a (provider, providerId)
	// pair, lowest id first
	FindByProviderID(ctx context.Context, provider, providerID string) ([]*domain.User, error)

	// FindByID returns the identity with the given id, or nil when absent
	FindByID(ctx context.Context, id int64) (*domain.User, error)

	// Save inserts a new identity (ID zero) or updates an existing one,
	// returning the stored row
	Save(ctx context.Context, user *domain.User) (*domain.User, error)

	// DeleteDuplicates removes every row for the pair except keepID and
	// returns how many were deleted
	DeleteDuplicates(ctx context.Context, provider, providerID string, keepID int64) (int64, error)
}
