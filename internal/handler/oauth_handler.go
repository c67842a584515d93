package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"auth-gateway/internal/container"
	"auth-gateway/internal/domain"
	"auth-gateway/pkg/errors"
)

const refreshCookieName = "refreshToken"

// OAuthHandler handles the login, callback, signup, refresh and logout
// endpoints
type OAuthHandler struct {
	container *container.Container
}

// NewOAuthHandler creates a new oauth handler
func NewOAuthHandler(container *container.Container) *OAuthHandler {
	return &OAuthHandler{
		container: container,
	}
}

// CallbackRequest is the provider callback body relayed by the frontend
type CallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// SignupRequest completes a deferred registration
type SignupRequest struct {
	SignupToken string `json:"signupToken"`
	Age         *int   `json:"age,omitempty"`
}

// LoginURL handles GET /api/v1/oauth/{provider}/login
func (h *OAuthHandler) LoginURL(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()
	provider := chi.URLParam(r, "provider")

	mode, err := parseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, err, log)
		return
	}

	data, err := h.container.GetOAuthService().Authorize(r.Context(), provider, mode)
	if err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authUrl": data.AuthURL,
		"state":   data.State,
		"message": "Redirect the user to the provider login page",
	}, log)
}

// Callback handles POST /api/v1/oauth/{provider}/callback
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()
	provider := chi.URLParam(r, "provider")

	var req CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("Invalid request body", nil), log)
		return
	}

	result, err := h.container.GetOAuthService().Callback(r.Context(), provider, req.Code, req.State)
	if err != nil {
		writeError(w, err, log)
		return
	}

	switch result.Outcome {
	case domain.OutcomeNeedsSignup:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":     false,
			"isNewUser":   true,
			"message":     "Signup required",
			"signupToken": result.SignupToken,
		}, log)

	case domain.OutcomeSignupComplete:
		user := result.User
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":      true,
			"isNewUser":    true,
			"message":      "Signup completed, please log in",
			"userId":       user.ID,
			"provider":     user.Provider,
			"email":        user.Email,
			"name":         user.Name,
			"profileImage": user.ProfileImage,
		}, log)

	case domain.OutcomeAuthenticated:
		user := result.User
		h.setRefreshCookie(w, result.Tokens.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":      true,
			"isNewUser":    false,
			"message":      "Login successful",
			"userId":       user.ID,
			"provider":     user.Provider,
			"providerId":   user.ProviderID,
			"email":        user.Email,
			"name":         user.Name,
			"profileImage": user.ProfileImage,
			"accessToken":  result.Tokens.AccessToken,
			"tokenType":    "Bearer",
		}, log)
	}
}

// Signup handles POST /api/v1/oauth/signup
func (h *OAuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("Invalid request body", nil), log)
		return
	}
	if req.SignupToken == "" {
		writeError(w, errors.NewValidationError("signupToken is required", nil), log)
		return
	}

	result, err := h.container.GetOAuthService().Signup(r.Context(), req.SignupToken, req.Age)
	if err != nil {
		writeError(w, err, log)
		return
	}

	user := result.User
	h.setRefreshCookie(w, result.Tokens.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      "Signup successful",
		"userId":       user.ID,
		"provider":     user.Provider,
		"email":        user.Email,
		"name":         user.Name,
		"nickname":     user.Nickname,
		"profileImage": user.ProfileImage,
		"accessToken":  result.Tokens.AccessToken,
		"tokenType":    "Bearer",
	}, log)
}

// Refresh handles POST /api/v1/oauth/refresh. The refresh token comes from
// the cookie, with the Authorization header as a fallback.
func (h *OAuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	refreshToken := h.refreshTokenFromRequest(r)
	if refreshToken == "" {
		writeError(w, errors.NewAuthenticationError("Refresh token is required"), log)
		return
	}

	result, err := h.container.GetOAuthService().Refresh(r.Context(), refreshToken)
	if err != nil {
		writeError(w, err, log)
		return
	}

	h.setRefreshCookie(w, result.Tokens.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"accessToken": result.Tokens.AccessToken,
		"tokenType":   "Bearer",
	}, log)
}

// Logout handles POST /api/v1/oauth/logout. Always succeeds and always
// clears the cookie.
func (h *OAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	refreshToken := h.refreshTokenFromRequest(r)
	accessToken := bearerToken(r)

	h.container.GetOAuthService().Logout(r.Context(), refreshToken, accessToken)

	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logout successful",
	}, log)
}

// ForceLogout handles POST /api/v1/oauth/force-logout/{userID}
func (h *OAuthHandler) ForceLogout(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, errors.NewValidationError("userID must be an integer", nil), log)
		return
	}

	if err := h.container.GetOAuthService().ForceLogout(r.Context(), userID); err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "All tokens invalidated",
		"userId":  userID,
	}, log)
}

// setRefreshCookie writes the refresh token cookie. SameSite=None because
// the frontend runs on a different origin; Secure is mandatory with it.
func (h *OAuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.container.GetOAuthService().RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *OAuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	// MaxAge -1 serializes as Max-Age=0, expiring the cookie immediately
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *OAuthHandler) refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func parseMode(raw string) (domain.Mode, error) {
	switch raw {
	case "", "login":
		return domain.ModeLogin, nil
	case "signup":
		return domain.ModeSignup, nil
	default:
		return domain.ModeNone, errors.NewValidationError("mode must be login or signup", nil)
	}
}
