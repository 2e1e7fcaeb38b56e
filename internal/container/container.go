package container

import (
	"context"
	"fmt"

	"pisces-api/internal/config"
	"pisces-api/internal/repository"
	"pisces-api/internal/service"
	"pisces-api/internal/service/gemini"
	"pisces-api/internal/service/identity"
	"pisces-api/pkg/database"
	"pisces-api/pkg/firestore"
	"pisces-api/pkg/logger"
	"pisces-api/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	Users       repository.UserRepository
	Services    *service.Services
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Container, error) {
	users, err := newUserRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize Redis client if Redis URL is configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, proceeding without caching")
	}

	verifier, err := newIdentityVerifier(ctx, cfg, logger)
	if err != nil {
		_ = users.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}

	c := &Container{
		Config:      cfg,
		Logger:      logger,
		RedisClient: redisClient,
		Users:       users,
	}

	geminiClient := gemini.NewClient(cfg.GeminiBaseURL, cfg.GeminiModel, logger)
	c.Services = &service.Services{
		Chat:  service.NewChatService(cfg, geminiClient, logger),
		Users: service.NewUserService(verifier, users, c.GetCacheService(), logger),
	}

	logger.WithFields(map[string]interface{}{
		"user_store":   cfg.UserStore,
		"gemini_model": geminiClient.Model(),
		"redis":        c.HasRedis(),
	}).Info("Container initialized")

	return c, nil
}

func newUserRepository(ctx context.Context, cfg *config.Config, logger *logger.Logger) (repository.UserRepository, error) {
	switch cfg.UserStore {
	case config.StoreFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreDatabaseID, cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firestore: %w", err)
		}
		logger.WithFields(map[string]interface{}{
			"project":  cfg.FirestoreProjectID,
			"database": cfg.FirestoreDatabaseID,
		}).Info("Firestore user store initialized")
		return repository.NewFirestoreUserRepository(client), nil
	case config.StorePostgres:
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		logger.Info("Postgres user store initialized")
		return repository.NewPostgresUserRepository(db), nil
	case config.StoreMemory:
		logger.Warn("Using in-memory user store, records are lost on restart")
		return repository.NewMemoryUserRepository(), nil
	default:
		return nil, fmt.Errorf("unknown user store %q", cfg.UserStore)
	}
}

func newIdentityVerifier(ctx context.Context, cfg *config.Config, logger *logger.Logger) (service.IdentityVerifier, error) {
	if cfg.IsDevelopment() && cfg.AuthDevJWTSecret != "" {
		logger.Warn("Using development JWT verifier instead of Google")
		return identity.NewJWTVerifier(cfg.AuthDevJWTSecret, cfg.GoogleClientID, logger)
	}

	verifier, err := identity.NewGoogleVerifier(ctx, cfg.GoogleClientID, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google verifier: %w", err)
	}
	return verifier, nil
}

// GetChatService returns the chat service
func (c *Container) GetChatService() service.ChatService {
	return c.Services.Chat
}

// GetUserService returns the user service
func (c *Container) GetUserService() service.UserService {
	return c.Services.Users
}

// GetUserRepository returns the user store
func (c *Container) GetUserRepository() repository.UserRepository {
	return c.Users
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// GetCacheService returns a cache service instance (returns nil if Redis is not available)
func (c *Container) GetCacheService() *service.CacheService {
	if c.RedisClient == nil {
		return nil
	}
	return service.NewCacheService(c.RedisClient, c.Logger.Logger)
}

// Close releases the store and cache clients
func (c *Container) Close() error {
	var firstErr error
	if c.Users != nil {
		if err := c.Users.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close user store: %w", err)
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close Redis: %w", err)
		}
	}
	return firstErr
}
