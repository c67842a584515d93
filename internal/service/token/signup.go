package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"auth-gateway/internal/domain"
	"auth-gateway/pkg/logger"
)

// Signup tokens use HS256 with a 32 byte key, deliberately distinct from
// the HS512 session tokens so one can never be replayed as the other even
// though both derive from the same configured secret.
const (
	minSignupKeySize = 32
	signupTokenType  = "signup"
	signupTokenTTL   = 10 * time.Minute
)

// ErrInvalidSignupToken is returned for signature, expiry or token-type
// failures
var ErrInvalidSignupToken = errors.New("invalid or expired signup token")

// SignupClaims embed the pending registration's provider profile. The token
// is stateless: validity derives purely from signature and expiry.
type SignupClaims struct {
	Provider     string `json:"provider"`
	ProviderID   string `json:"providerId"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
	Nickname     string `json:"nickname,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	TokenType    string `json:"tokenType"`
	jwt.RegisteredClaims
}

// SignupTokenService bridges "new user detected" to "confirm signup"
// without server-side session state. The first OAuth encounter never
// creates an account; it hands the client one of these instead.
type SignupTokenService struct {
	key []byte
	log *logger.Logger

	now func() time.Time
}

// NewSignupTokenService creates a signup token service
func NewSignupTokenService(secret string, log *logger.Logger) *SignupTokenService {
	return &SignupTokenService{
		key: expandSecret(secret, minSignupKeySize),
		log: log,
		now: time.Now,
	}
}

// Issue signs a token embedding the full normalized profile, valid for 10
// minutes
func (s *SignupTokenService) Issue(profile *domain.ProviderProfile) (string, error) {
	now := s.now()
	claims := &SignupClaims{
		Provider:     profile.Provider,
		ProviderID:   profile.ProviderID,
		Email:        profile.Email,
		Name:         profile.Name,
		Nickname:     profile.Nickname,
		ProfileImage: profile.ProfileImage,
		TokenType:    signupTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(signupTokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign signup token: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"provider":    profile.Provider,
		"provider_id": profile.ProviderID,
	}).Info("Signup token issued")

	return signed, nil
}

// Validate verifies signature and expiry and rejects tokens whose type is
// not exactly "signup", defending against token-type confusion
func (s *SignupTokenService) Validate(tokenString string) (*SignupClaims, error) {
	claims := &SignupClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		// exactly HS256, mirroring the session side's HS512 pin
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.log.Warn("Signup token expired")
		} else {
			s.log.WithError(err).Warn("Signup token validation failed")
		}
		return nil, ErrInvalidSignupToken
	}

	if claims.TokenType != signupTokenType {
		s.log.WithField("token_type", claims.TokenType).Warn("Signup token has wrong type")
		return nil, ErrInvalidSignupToken
	}

	return claims, nil
}

// ExtractProfile rebuilds the provider profile from validated claims
func (s *SignupTokenService) ExtractProfile(claims *SignupClaims) *domain.ProviderProfile {
	return &domain.ProviderProfile{
		Provider:     claims.Provider,
		ProviderID:   claims.ProviderID,
		Email:        claims.Email,
		Name:         claims.Name,
		Nickname:     claims.Nickname,
		ProfileImage: claims.ProfileImage,
	}
}
