package service

import (
	"context"
	"fmt"

	"auth-gateway/internal/domain"
	"auth-gateway/internal/repository"
	"auth-gateway/pkg/logger"
)

// userService implements UserService on top of the user repository
type userService struct {
	users repository.UserRepository
	log   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, log *logger.Logger) UserService {
	return &userService{
		users: users,
		log:   log,
	}
}

// FindUser returns the identity for the pair, or nil when none exists.
// When duplicate rows are found it repairs them and returns the survivor.
func (s *userService) FindUser(ctx context.Context, provider, providerID string) (*domain.User, error) {
	matches, err := s.users.FindByProviderID(ctx, provider, providerID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return s.healDuplicates(ctx, matches)
}

// FindByID returns the identity with the given id, or nil
func (s *userService) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// Save persists an identity
func (s *userService) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	return s.users.Save(ctx, user)
}

// FindOrCreate returns the identity for the profile's pair. An existing
// identity gets its profile fields refreshed from the provider; a missing
// one is created with defaults.
func (s *userService) FindOrCreate(ctx context.Context, profile *domain.ProviderProfile, age *int) (*domain.User, error) {
	user, err := s.FindUser(ctx, profile.Provider, profile.ProviderID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &domain.User{
			Provider:   profile.Provider,
			ProviderID: profile.ProviderID,
			Role:       domain.DefaultRole,
		}
	}

	user.ApplyProfile(profile)
	if age != nil {
		user.Age = age
	}

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to persist identity: %w", err)
	}

	return saved, nil
}

// healDuplicates keeps the lowest-id row and deletes the rest. Duplicates
// arise from concurrent first logins racing the insert; the lowest id is
// the row most likely referenced elsewhere.
func (s *userService) healDuplicates(ctx context.Context, matches []*domain.User) (*domain.User, error) {
	keeper := matches[0]
	if len(matches) == 1 {
		return keeper, nil
	}

	s.log.WithFields(map[string]interface{}{
		"provider":    keeper.Provider,
		"provider_id": keeper.ProviderID,
		"count":       len(matches),
		"keep_id":     keeper.ID,
	}).Warn("Duplicate identities detected, repairing")

	deleted, err := s.users.DeleteDuplicates(ctx, keeper.Provider, keeper.ProviderID, keeper.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to repair duplicate identities: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"keep_id": keeper.ID,
		"deleted": deleted,
	}).Info("Duplicate identities repaired")

	return keeper, nil
}
