package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"auth-gateway/pkg/logger"
)

// HS512 requires a 64 byte key
const minSessionKeySize = 64

// TokenTypeRefresh marks refresh tokens; access tokens carry no type claim
const TokenTypeRefresh = "refresh"

// ErrInvalidToken is returned for any signature, structure or expiry
// failure. Callers must not branch on the underlying cause for
// authorization decisions; the distinction is logged only.
var ErrInvalidToken = errors.New("invalid or expired token")

// SessionClaims are the identity claims carried by access and refresh JWTs
type SessionClaims struct {
	UserID    int64  `json:"userId"`
	Provider  string `json:"provider"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Age       *int   `json:"age,omitempty"`
	TokenType string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// JWTService issues and validates access/refresh session tokens
type JWTService struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        *logger.Logger

	// now is swappable in tests
	now func() time.Time
}

// NewJWTService creates a JWT service signing with HS512. A secret shorter
// than 64 bytes is repeat-expanded rather than rejected.
func NewJWTService(secret string, accessTTL, refreshTTL time.Duration, log *logger.Logger) *JWTService {
	if len(secret) < minSessionKeySize {
		log.WithField("min_key_size", minSessionKeySize).Warn(
			"JWT secret shorter than the HS512 key size, expanding by repetition")
	}

	return &JWTService{
		key:        expandSecret(secret, minSessionKeySize),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        log,
		now:        time.Now,
	}
}

// IssueAccess creates a short-lived access token
func (s *JWTService) IssueAccess(userID int64, provider, email, name string, age *int) (string, error) {
	return s.issue(userID, provider, email, name, age, "", s.accessTTL)
}

// IssueRefresh creates a long-lived refresh token carrying type=refresh
func (s *JWTService) IssueRefresh(userID int64, provider, email, name string, age *int) (string, error) {
	return s.issue(userID, provider, email, name, age, TokenTypeRefresh, s.refreshTTL)
}

func (s *JWTService) issue(userID int64, provider, email, name string, age *int, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &SessionClaims{
		UserID:    userID,
		Provider:  provider,
		Email:     email,
		Name:      name,
		Age:       age,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"user_id": userID,
		"type":    tokenType,
	}).Info("Session token issued")

	return signed, nil
}

// Verify validates signature and expiry and returns the claims. Expired
// and otherwise-invalid tokens are distinguished in logs only; both return
// ErrInvalidToken.
func (s *JWTService) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		// exactly HS512: with a long shared secret a signup token would
		// otherwise verify under the same key
		if t.Method != jwt.SigningMethodHS512 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.log.Warn("Session token expired")
		} else {
			s.log.WithError(err).Warn("Session token validation failed")
		}
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// IsExpired reports whether a token is past its expiry. Undecodable tokens
// count as expired.
func (s *JWTService) IsExpired(tokenString string) bool {
	_, err := s.Verify(tokenString)
	return err != nil
}

// ExtractUserID returns the userId claim of a valid token
func (s *JWTService) ExtractUserID(tokenString string) (int64, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// RefreshTTL exposes the refresh lifetime for cookie Max-Age and store TTL
func (s *JWTService) RefreshTTL() time.Duration {
	return s.refreshTTL
}
