package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different types of application errors
type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeAuthentication     ErrorType = "authentication"
	ErrorTypeAuthorization      ErrorType = "authorization"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeInternal           ErrorType = "internal"
	ErrorTypeExternal           ErrorType = "external"
	ErrorTypeInvalidState       ErrorType = "invalid_state"
	ErrorTypeProviderExchange   ErrorType = "provider_exchange"
	ErrorTypeMissingProviderID  ErrorType = "missing_provider_id"
	ErrorTypeInvalidToken       ErrorType = "invalid_token"
	ErrorTypeTokenStoreMismatch ErrorType = "token_store_mismatch"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Internal:   internal,
	}
}

// NewInvalidStateError signals a missing, expired or replayed OAuth state.
// The flow must abort before any provider call is made.
func NewInvalidStateError() *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidState,
		Message:    "State validation failed, CSRF suspected",
		StatusCode: http.StatusUnauthorized,
	}
}

// NewProviderExchangeError signals a non-2xx response from a provider's
// token or profile endpoint
func NewProviderExchangeError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeProviderExchange,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Internal:   internal,
	}
}

// NewMissingProviderIDError signals a provider response without a usable id
func NewMissingProviderIDError(provider string) *AppError {
	return &AppError{
		Type:       ErrorTypeMissingProviderID,
		Message:    fmt.Sprintf("Provider %s returned no usable identifier", provider),
		StatusCode: http.StatusBadGateway,
	}
}

// NewInvalidTokenError signals a JWT or signup-token signature, type or
// expiry failure
func NewInvalidTokenError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidToken,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewTokenStoreMismatchError signals a refresh token whose store record
// disagrees with the claimed owner
func NewTokenStoreMismatchError() *AppError {
	return &AppError{
		Type:       ErrorTypeTokenStoreMismatch,
		Message:    "Refresh token has been invalidated",
		StatusCode: http.StatusUnauthorized,
	}
}

// ErrorResponse represents the JSON error response
type ErrorResponse struct {
	Success bool `json:"success"`
	Error   struct {
		Type      ErrorType              `json:"type"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details,omitempty"`
		Timestamp string                 `json:"timestamp"`
	} `json:"error"`
}
