package domain

import "time"

// DefaultRole is assigned to every identity created through OAuth signup
const DefaultRole = "USER"

// User represents an OAuth-backed identity. One row per (provider,
// providerId) pair; profile fields are refreshed on every login.
type User struct {
	ID             int64                  `json:"id"`
	Provider       string                 `json:"provider"`
	ProviderID     string                 `json:"providerId"`
	Email          *string                `json:"email,omitempty"`
	Name           *string                `json:"name,omitempty"`
	Nickname       *string                `json:"nickname,omitempty"`
	ProfileImage   *string                `json:"profileImage,omitempty"`
	Age            *int                   `json:"age,omitempty"`
	PreferenceJSON map[string]interface{} `json:"preferences,omitempty"`
	Role           string                 `json:"role"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// ApplyProfile refreshes the mutable profile fields from a provider profile.
// Absent fields are left untouched so a provider that returns no name does
// not wipe one set earlier.
func (u *User) ApplyProfile(p *ProviderProfile) {
	if p.Email != "" {
		u.Email = strPtr(p.Email)
	}
	if p.Name != "" {
		u.Name = strPtr(p.Name)
	}
	if p.Nickname != "" {
		u.Nickname = strPtr(p.Nickname)
	}
	if p.ProfileImage != "" {
		u.ProfileImage = strPtr(p.ProfileImage)
	}
}

// EmailOrEmpty returns the email or "" when unset
func (u *User) EmailOrEmpty() string {
	return strOrEmpty(u.Email)
}

// NameOrEmpty returns the name or "" when unset
func (u *User) NameOrEmpty() string {
	return strOrEmpty(u.Name)
}

func strPtr(s string) *string { return &s }

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
