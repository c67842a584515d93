package token

// expandSecret deterministically repeats a configured secret up to the
// signing algorithm's minimum key size instead of failing. Deployments ship
// short secrets more often than they should; the caller logs a warning so
// operators notice.
func expandSecret(secret string, minKeySize int) []byte {
	key := []byte(secret)
	if len(key) >= minKeySize {
		return key
	}

	expanded := make([]byte, minKeySize)
	for i := range expanded {
		expanded[i] = key[i%len(key)]
	}
	return expanded
}
