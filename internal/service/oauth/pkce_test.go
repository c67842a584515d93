package oauth

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-gateway/pkg/logger"
)

var urlSafePattern = regexp.MustCompile(`^[A-Za-z0-9\-_]+$`)

func TestPKCEService_GenerateVerifier(t *testing.T) {
	_, client := setupOAuthRedis(t)
	svc := NewPKCEService(client, logger.NewNop())

	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		verifier, err := svc.GenerateVerifier()
		require.NoError(t, err)

		assert.GreaterOrEqual(t, len(verifier), verifierMinLength)
		assert.LessOrEqual(t, len(verifier), verifierMaxLength)
		assert.Regexp(t, urlSafePattern, verifier)

		_, dup := seen[verifier]
		assert.False(t, dup, "verifiers must not repeat")
		seen[verifier] = struct{}{}
	}
}

func TestPKCEService_DeriveChallenge(t *testing.T) {
	_, client := setupOAuthRedis(t)
	svc := NewPKCEService(client, logger.NewNop())

	// RFC 7636 appendix B test vector
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	challenge := svc.DeriveChallenge(verifier)
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", challenge)

	// deterministic
	assert.Equal(t, challenge, svc.DeriveChallenge(verifier))
}

func TestPKCEService_StoreTakeOnce(t *testing.T) {
	_, client := setupOAuthRedis(t)
	svc := NewPKCEService(client, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Store(ctx, "state-1", "verifier-1"))

	verifier, err := svc.TakeVerifier(ctx, "state-1")
	require.NoError(t, err)
	assert.Equal(t, "verifier-1", verifier)

	// second take returns none, not an error
	verifier, err = svc.TakeVerifier(ctx, "state-1")
	require.NoError(t, err)
	assert.Empty(t, verifier)
}

func TestPKCEService_TakeUnknown(t *testing.T) {
	_, client := setupOAuthRedis(t)
	svc := NewPKCEService(client, logger.NewNop())

	// absence is non-fatal: providers without PKCE never store one
	verifier, err := svc.TakeVerifier(context.Background(), "no-such-state")
	require.NoError(t, err)
	assert.Empty(t, verifier)
}
