package redis

import "fmt"

// Key patterns. Forward refresh-token keys map token to owner; the user set
// is the reverse index used for bulk invalidation.
const (
	keyOAuthState   = "oauth:state:%s"
	keyPKCEVerifier = "oauth:pkce:%s"
	keyRefreshToken = "refreshToken:%s"
	keyUserTokens   = "user:tokens:%d"
)

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{prefix: prefix}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyOAuthState returns the key holding an issued anti-CSRF state payload
func (kb *KeyBuilder) KeyOAuthState(state string) string {
	return kb.BuildKey(fmt.Sprintf(keyOAuthState, state))
}

// KeyPKCEVerifier returns the key holding a PKCE code verifier, keyed by
// the state issued alongside it
func (kb *KeyBuilder) KeyPKCEVerifier(state string) string {
	return kb.BuildKey(fmt.Sprintf(keyPKCEVerifier, state))
}

// KeyRefreshToken returns the forward key mapping a refresh token to its
// owning user id
func (kb *KeyBuilder) KeyRefreshToken(token string) string {
	return kb.BuildKey(fmt.Sprintf(keyRefreshToken, token))
}

// KeyUserTokens returns the set of active refresh tokens for a user
func (kb *KeyBuilder) KeyUserTokens(userID int64) string {
	return kb.BuildKey(fmt.Sprintf(keyUserTokens, userID))
}
