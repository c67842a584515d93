package handler

import (
	"encoding/json"
	"net/http"

	"auth-gateway/internal/container"
	"auth-gateway/internal/domain"
	"auth-gateway/internal/middleware"
	"auth-gateway/pkg/errors"
)

// UserHandler handles the profile endpoints
type UserHandler struct {
	container *container.Container
}

// NewUserHandler creates a new user handler
func NewUserHandler(container *container.Container) *UserHandler {
	return &UserHandler{
		container: container,
	}
}

// UpdateProfileRequest carries the mutable profile fields. Absent fields
// are left unchanged.
type UpdateProfileRequest struct {
	Name         *string `json:"name,omitempty"`
	Nickname     *string `json:"nickname,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
	Age          *int    `json:"age,omitempty"`
}

// Me handles GET /api/v1/user/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, errors.NewAuthenticationError("User not authenticated"), log)
		return
	}

	user, err := h.container.GetUserService().FindByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, errors.NewInternalError("Failed to load user", err), log)
		return
	}
	if user == nil {
		writeError(w, errors.NewNotFoundError("User not found"), log)
		return
	}

	writeJSON(w, http.StatusOK, profilePayload(user), log)
}

// UpdateMe handles PUT /api/v1/user/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, errors.NewAuthenticationError("User not authenticated"), log)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("Invalid request body", nil), log)
		return
	}

	users := h.container.GetUserService()
	user, err := users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, errors.NewInternalError("Failed to load user", err), log)
		return
	}
	if user == nil {
		writeError(w, errors.NewNotFoundError("User not found"), log)
		return
	}

	if req.Name != nil {
		user.Name = req.Name
	}
	if req.Nickname != nil {
		user.Nickname = req.Nickname
	}
	if req.ProfileImage != nil {
		user.ProfileImage = req.ProfileImage
	}
	if req.Age != nil {
		user.Age = req.Age
	}

	updated, err := users.Save(r.Context(), user)
	if err != nil {
		writeError(w, errors.NewInternalError("Failed to update user", err), log)
		return
	}

	log.WithField("user_id", updated.ID).Info("User profile updated")
	writeJSON(w, http.StatusOK, profilePayload(updated), log)
}

func profilePayload(user *domain.User) map[string]interface{} {
	return map[string]interface{}{
		"id":           user.ID,
		"provider":     user.Provider,
		"email":        user.Email,
		"name":         user.Name,
		"nickname":     user.Nickname,
		"profileImage": user.ProfileImage,
		"age":          user.Age,
		"role":         user.Role,
	}
}
