package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"auth-gateway/internal/config"
	"auth-gateway/internal/repository"
	"auth-gateway/internal/service"
	"auth-gateway/internal/service/news"
	"auth-gateway/internal/service/oauth"
	"auth-gateway/internal/service/token"
	"auth-gateway/pkg/database"
	"auth-gateway/pkg/logger"
	"auth-gateway/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	Database    *database.PostgresDB
	JWT         *token.JWTService
	Services    *service.Services
}

// New creates a new dependency injection container. Postgres and Redis are
// both required; the gateway cannot run without its identity store or its
// token store.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	redisClient, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis client: %w", err)
	}
	log.Info("Redis client initialized successfully")

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("Database connection established")

	httpClient := &http.Client{Timeout: 30 * time.Second}

	states := oauth.NewStateService(redisClient, log)
	pkce := oauth.NewPKCEService(redisClient, log)

	providers := []oauth.Provider{
		oauth.NewGoogleProvider(cfg.Google, states, pkce, httpClient, log),
		oauth.NewKakaoProvider(cfg.Kakao, states, pkce, httpClient, log),
		oauth.NewNaverProvider(cfg.Naver, states, httpClient, log),
	}

	jwtService := token.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, log)
	signupTokens := token.NewSignupTokenService(cfg.JWTSecret, log)
	refreshStore := token.NewRefreshTokenStore(redisClient, cfg.RefreshTokenTTL, log)

	userRepo := repository.NewUserRepository(db, log)
	userService := service.NewUserService(userRepo, log)

	oauthService := oauth.NewOAuthService(providers, userService, jwtService, signupTokens, refreshStore, log)
	newsService := news.NewNewsService(nil, cfg.NaverSearchClientID, cfg.NaverSearchClientSecret, log)

	services := &service.Services{
		OAuth: oauthService,
		User:  userService,
		News:  newsService,
	}

	return &Container{
		Config:      cfg,
		Logger:      log,
		RedisClient: redisClient,
		Database:    db,
		JWT:         jwtService,
		Services:    services,
	}, nil
}

// GetOAuthService returns the oauth orchestrator
func (c *Container) GetOAuthService() service.OAuthService {
	return c.Services.OAuth
}

// GetUserService returns the user service
func (c *Container) GetUserService() service.UserService {
	return c.Services.User
}

// GetNewsService returns the news service
func (c *Container) GetNewsService() service.NewsService {
	return c.Services.News
}

// GetJWTService returns the session token service
func (c *Container) GetJWTService() *token.JWTService {
	return c.JWT
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// Close releases the container's connections
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Error("Failed to close redis client")
		}
	}
	if c.Database != nil {
		c.Database.Close()
	}
}
