package handler

import (
	"encoding/json"
	"net/http"

	"auth-gateway/pkg/errors"
	"auth-gateway/pkg/logger"
)

// writeJSON encodes a success payload
func writeJSON(w http.ResponseWriter, status int, payload interface{}, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// writeError renders an error as the standard envelope. Anything that is
// not an AppError is treated as internal and its detail withheld.
func writeError(w http.ResponseWriter, err error, log *logger.Logger) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.NewInternalError("Internal server error", err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(appErr).Error("Request failed")
	} else {
		log.WithError(appErr).Warn("Request rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	response := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"type":    string(appErr.Type),
			"message": appErr.Message,
		},
	}
	if appErr.Details != nil {
		response["error"].(map[string]interface{})["details"] = appErr.Details
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.WithError(err).Error("Failed to encode error response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
