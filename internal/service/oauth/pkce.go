package oauth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"auth-gateway/pkg/logger"
	"auth-gateway/pkg/redis"
)

// RFC 7636 bounds for the code verifier length
const (
	verifierMinLength = 43
	verifierMaxLength = 128
	// 96 random bytes encode to 128 base64url characters
	verifierRandomBytes = 96
)

// PKCEService generates verifier/challenge pairs and stores verifiers
// server-side keyed by the state issued alongside them
type PKCEService struct {
	redis *redis.Client
	log   *logger.Logger
}

// NewPKCEService creates a new PKCE service
func NewPKCEService(redisClient *redis.Client, log *logger.Logger) *PKCEService {
	return &PKCEService{
		redis: redisClient,
		log:   log,
	}
}

// GenerateVerifier returns a cryptographically random, URL-safe verifier
// within the RFC 7636 length bounds
func (s *PKCEService) GenerateVerifier() (string, error) {
	buf := make([]byte, verifierRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}

	verifier := base64.RawURLEncoding.EncodeToString(buf)
	if len(verifier) > verifierMaxLength {
		verifier = verifier[:verifierMaxLength]
	}

	return verifier, nil
}

// DeriveChallenge computes the S256 challenge for a verifier. The plain
// method is not supported.
func (s *PKCEService) DeriveChallenge(verifier string) string {
	digest := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

// Store persists the verifier keyed by state with a 10 minute expiry
func (s *PKCEService) Store(ctx context.Context, state, verifier string) error {
	key := s.redis.KeyBuilder.KeyPKCEVerifier(state)
	if err := s.redis.Set(ctx, key, verifier, redis.TTLPKCEVerifier); err != nil {
		return fmt.Errorf("failed to store code verifier: %w", err)
	}

	s.log.WithField("state", state).Info("Code verifier stored")
	return nil
}

// TakeVerifier retrieves and deletes the verifier for a state in one round
// trip. Absence is non-fatal: Naver flows never store one, so ("", nil) is
// returned and the caller proceeds without PKCE.
func (s *PKCEService) TakeVerifier(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", nil
	}

	key := s.redis.KeyBuilder.KeyPKCEVerifier(state)
	verifier, err := s.redis.GetDel(ctx, key)
	if err == redis.Nil {
		s.log.WithField("state", state).Warn("Code verifier not found, proceeding without PKCE")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to take code verifier: %w", err)
	}

	s.log.WithField("state", state).Info("Code verifier taken")
	return verifier, nil
}
