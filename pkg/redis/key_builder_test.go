package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKeyBuilder(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Test environment",
			environment:    "test",
			expectedPrefix: "staging",
		},
		{
			name:           "Unknown environment defaults to prod",
			environment:    "something-else",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			assert.Equal(t, tt.expectedPrefix, kb.GetPrefix())
		})
	}
}

func TestKeyBuilder_Keys(t *testing.T) {
	kb := NewKeyBuilder("test")

	assert.Equal(t, "staging:oauth:state:abc", kb.KeyOAuthState("abc"))
	assert.Equal(t, "staging:oauth:pkce:abc", kb.KeyPKCEVerifier("abc"))
	assert.Equal(t, "staging:refreshToken:tok", kb.KeyRefreshToken("tok"))
	assert.Equal(t, "staging:user:tokens:42", kb.KeyUserTokens(42))
}
