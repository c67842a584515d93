package repository

import (
	"context"
	"strings"
	"time"

	"auth-gateway/pkg/logger"
)

const (
	retryMaxAttempts = 2
	retryBaseBackoff = 100 * time.Millisecond
)

// isTransientStatementError matches the cached-plan/prepared-statement
// invalidation class of Postgres errors, which succeeds on immediate retry
// after the driver drops its cache
func isTransientStatementError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "cached plan must not change result type") ||
		strings.Contains(msg, "prepared statement") && strings.Contains(msg, "does not exist")
}

// withRetry runs op with a bounded retry for the transient statement class
// only; every other failure propagates on the first attempt
func withRetry(ctx context.Context, log *logger.Logger, op func() error) error {
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !isTransientStatementError(err) || attempt >= retryMaxAttempts {
			return err
		}

		log.WithError(err).WithFields(map[string]interface{}{
			"attempt":      attempt,
			"max_attempts": retryMaxAttempts,
		}).Warn("Transient statement error, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBaseBackoff):
		}
	}
}
