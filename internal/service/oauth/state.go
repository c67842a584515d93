package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"auth-gateway/internal/domain"
	"auth-gateway/pkg/logger"
	"auth-gateway/pkg/redis"
)

// ErrStateNotFound is returned when a state was never issued, already
// consumed, or expired. Callers must treat it as a potential CSRF/replay.
var ErrStateNotFound = errors.New("oauth state not found")

// legacyStatePayload is the pre-JSON value older deployments wrote. It is
// still accepted and decoded as a mode-less state.
const legacyStatePayload = "valid"

// StateService issues and single-use-validates anti-CSRF state tokens
type StateService struct {
	redis *redis.Client
	log   *logger.Logger
}

// NewStateService creates a new state service
func NewStateService(redisClient *redis.Client, log *logger.Logger) *StateService {
	return &StateService{
		redis: redisClient,
		log:   log,
	}
}

// Issue generates an opaque state, stores its payload with a 10 minute
// expiry and returns the identifier
func (s *StateService) Issue(ctx context.Context, mode domain.Mode) (string, error) {
	state := uuid.NewString()

	payload, err := json.Marshal(domain.StateData{Valid: true, Mode: mode})
	if err != nil {
		return "", fmt.Errorf("failed to encode state payload: %w", err)
	}

	key := s.redis.KeyBuilder.KeyOAuthState(state)
	if err := s.redis.Set(ctx, key, payload, redis.TTLOAuthState); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"state": state,
		"mode":  string(mode),
	}).Info("OAuth state issued")

	return state, nil
}

// Consume validates a state and removes it in the same round trip, so a
// state is consumable exactly once even under concurrent callbacks. A miss
// returns ErrStateNotFound.
func (s *StateService) Consume(ctx context.Context, state string) (*domain.StateData, error) {
	if state == "" {
		s.log.Warn("State validation failed: empty state")
		return nil, ErrStateNotFound
	}

	key := s.redis.KeyBuilder.KeyOAuthState(state)
	val, err := s.redis.GetDel(ctx, key)
	if err == redis.Nil {
		s.log.WithField("state", state).Warn("State validation failed: expired or never issued")
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}

	if val == legacyStatePayload {
		s.log.WithField("state", state).Info("OAuth state consumed (legacy payload)")
		return &domain.StateData{Valid: true, Mode: domain.ModeNone}, nil
	}

	var data domain.StateData
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		s.log.WithError(err).WithField("state", state).Warn("State payload was unreadable")
		return nil, ErrStateNotFound
	}

	s.log.WithFields(map[string]interface{}{
		"state": state,
		"mode":  string(data.Mode),
	}).Info("OAuth state consumed")

	return &data, nil
}
