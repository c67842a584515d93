package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"auth-gateway/pkg/logger"
	"auth-gateway/pkg/redis"
)

// ErrRefreshTokenNotFound is returned when a token has expired, been
// deleted, or was never issued. The store lookup is what makes refresh
// tokens revocable despite being self-verifying JWTs.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// RefreshTokenStore persists refresh tokens in Redis: a forward key
// token→userId and a reverse index userId→set of active tokens, both with
// TTL equal to the refresh lifetime. The store TTL, not the JWT exp claim,
// is the actual source of revocability.
type RefreshTokenStore struct {
	redis *redis.Client
	ttl   time.Duration
	log   *logger.Logger
}

// NewRefreshTokenStore creates a refresh token store
func NewRefreshTokenStore(redisClient *redis.Client, ttl time.Duration, log *logger.Logger) *RefreshTokenStore {
	return &RefreshTokenStore{
		redis: redisClient,
		ttl:   ttl,
		log:   log,
	}
}

// Save writes the forward key and adds the token to the user's active set.
// The forward key is written first: a crash between the two writes leaves a
// usable token outside the set, which InvalidateAll tolerates as it is a
// best-effort control, not an accounting ledger.
func (s *RefreshTokenStore) Save(ctx context.Context, userID int64, token string) error {
	tokenKey := s.redis.KeyBuilder.KeyRefreshToken(token)
	if err := s.redis.Set(ctx, tokenKey, strconv.FormatInt(userID, 10), s.ttl); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}

	setKey := s.redis.KeyBuilder.KeyUserTokens(userID)
	if err := s.redis.SAdd(ctx, setKey, token); err != nil {
		return fmt.Errorf("failed to index refresh token: %w", err)
	}
	if err := s.redis.Expire(ctx, setKey, s.ttl); err != nil {
		return fmt.Errorf("failed to expire token index: %w", err)
	}

	s.log.WithField("user_id", userID).Debug("Refresh token saved")
	return nil
}

// Validate looks up the forward key and returns the owning user id, or
// ErrRefreshTokenNotFound when the token is absent
func (s *RefreshTokenStore) Validate(ctx context.Context, token string) (int64, error) {
	tokenKey := s.redis.KeyBuilder.KeyRefreshToken(token)
	val, err := s.redis.Get(ctx, tokenKey)
	if err == redis.Nil {
		s.log.Warn("Refresh token not present in store")
		return 0, ErrRefreshTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to validate refresh token: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("refresh token record was unreadable: %w", err)
	}

	return userID, nil
}

// Delete removes a single token from the forward keys and from its owner's
// active set
func (s *RefreshTokenStore) Delete(ctx context.Context, token string) error {
	userID, err := s.Validate(ctx, token)
	if err == ErrRefreshTokenNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	tokenKey := s.redis.KeyBuilder.KeyRefreshToken(token)
	if err := s.redis.Delete(ctx, tokenKey); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	setKey := s.redis.KeyBuilder.KeyUserTokens(userID)
	if err := s.redis.SRem(ctx, setKey, token); err != nil {
		return fmt.Errorf("failed to unindex refresh token: %w", err)
	}

	s.log.WithField("user_id", userID).Info("Refresh token deleted")
	return nil
}

// Rotate makes the old token immediately unusable before saving the new
// one. If the save fails after the delete, the user is left without a valid
// refresh token; that fails closed and surfaces as a server error rather
// than re-issuing the old token.
func (s *RefreshTokenStore) Rotate(ctx context.Context, userID int64, oldToken, newToken string) error {
	if err := s.Delete(ctx, oldToken); err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	if err := s.Save(ctx, userID, newToken); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error(
			"Rotation deleted the old token but saving the new one failed")
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	s.log.WithField("user_id", userID).Info("Refresh token rotated")
	return nil
}

// InvalidateAll deletes every forward key in the user's active set, then
// the set itself. Used for logout-everywhere and forced logout.
func (s *RefreshTokenStore) InvalidateAll(ctx context.Context, userID int64) error {
	setKey := s.redis.KeyBuilder.KeyUserTokens(userID)
	tokens, err := s.redis.SMembers(ctx, setKey)
	if err != nil {
		return fmt.Errorf("failed to list refresh tokens: %w", err)
	}

	for _, token := range tokens {
		tokenKey := s.redis.KeyBuilder.KeyRefreshToken(token)
		if err := s.redis.Delete(ctx, tokenKey); err != nil {
			return fmt.Errorf("failed to invalidate refresh token: %w", err)
		}
	}

	if err := s.redis.Delete(ctx, setKey); err != nil {
		return fmt.Errorf("failed to delete token index: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"user_id": userID,
		"count":   len(tokens),
	}).Info("All refresh tokens invalidated")

	return nil
}
