package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProviderCredentials holds one OAuth provider's client registration
type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Config holds all configuration values for the application. It is built
// once in main and injected into the container; nothing mutates it after
// startup.
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string

	DatabaseURL string
	RedisURL    string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Google ProviderCredentials
	Kakao  ProviderCredentials
	Naver  ProviderCredentials

	// Naver open-API credentials for the news search endpoint; these are
	// separate from the Naver login registration
	NaverSearchClientID     string
	NaverSearchClientSecret string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Environment:     getEnv("ENVIRONMENT", "production"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		AccessTokenTTL:  getDurationEnv("JWT_EXPIRATION", 30*time.Minute),
		RefreshTokenTTL: getDurationEnv("JWT_REFRESH_EXPIRATION", 21*24*time.Hour),
		Google: ProviderCredentials{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
		},
		Kakao: ProviderCredentials{
			ClientID:     getEnv("KAKAO_CLIENT_ID", ""),
			ClientSecret: getEnv("KAKAO_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("KAKAO_REDIRECT_URI", ""),
		},
		Naver: ProviderCredentials{
			ClientID:     getEnv("NAVER_CLIENT_ID", ""),
			ClientSecret: getEnv("NAVER_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("NAVER_REDIRECT_URI", ""),
		},
		NaverSearchClientID:     getEnv("NAVER_SEARCH_CLIENT_ID", ""),
		NaverSearchClientSecret: getEnv("NAVER_SEARCH_CLIENT_SECRET", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDurationEnv parses a Go duration string environment variable
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
