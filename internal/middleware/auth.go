package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"auth-gateway/internal/service/token"
	"auth-gateway/pkg/errors"
	"auth-gateway/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// ClaimsContextKey is the key for the verified session claims
	ClaimsContextKey ContextKey = "claims"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// Auth creates an authentication middleware verifying bearer access tokens
func Auth(tokens *token.JWTService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Authorization header is required"), logger)
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeErrorResponse(w, errors.NewAuthenticationError("Invalid authorization header format"), logger)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Token is required"), logger)
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				logger.WithError(err).Warn("Access token validation failed")
				writeErrorResponse(w, errors.NewAuthenticationError("Invalid or expired token"), logger)
				return
			}

			// refresh tokens are for /refresh only
			if claims.TokenType == token.TokenTypeRefresh {
				logger.WithField("user_id", claims.UserID).Warn("Refresh token used as access token")
				writeErrorResponse(w, errors.NewAuthenticationError("Invalid or expired token"), logger)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			r = r.WithContext(ctx)

			logger.WithField("user_id", claims.UserID).Debug("User authenticated successfully")

			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the verified claims set by Auth, or nil
func ClaimsFromContext(ctx context.Context) *token.SessionClaims {
	claims, _ := ctx.Value(ClaimsContextKey).(*token.SessionClaims)
	return claims
}

// RequestID creates a middleware that adds a unique request ID to each request
func RequestID(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := generateRequestID()

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			r = r.WithContext(ctx)

			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r)
		})
	}
}

// generateRequestID generates a simple request ID
func generateRequestID() string {
	return fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError, logger *logger.Logger) {
	logger.WithError(appErr).Error("Request error")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode error response")
	}
}
