package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tradingnft/backend/internal/config"
	"github.com/tradingnft/backend/internal/handlers"
	"github.com/tradingnft/backend/internal/middleware"
	"github.com/tradingnft/backend/internal/repository"
	"github.com/tradingnft/backend/internal/services"
	"github.com/tradingnft/backend/internal/utils"
	"github.com/tradingnft/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg           *config.Config
	stores        *repository.Stores
	taskQueue     services.TaskQueue
	worker        *services.Worker
	redis         *redis.Client
	rateLimiter   *middleware.RateLimiter
	loginThrottle *services.LoginThrottle
	authService   *services.AuthService
	userService   *services.UserService
	authHandler   *handlers.AuthHandler
	userHandler   *handlers.UserHandler
	healthHandler *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, workers.
func bootstrap(ctx context.Context, cfg *config.Config) (*appServices, error) {
	if cfg.UsesDefaultSecret() {
		logger.Warn().Msg("Using the built-in JWT secret; set JWT_SECRET in production")
	}

	stores, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	svc, err := newAppServices(cfg, stores)
	if err != nil {
		_ = stores.Close(ctx)
		return nil, err
	}
	return svc, nil
}

// newAppServices wires services and handlers over already opened stores.
func newAppServices(cfg *config.Config, stores *repository.Stores) (*appServices, error) {
	accessTTL, err := cfg.Auth.AccessTTL()
	if err != nil {
		return nil, err
	}
	refreshTTL, err := cfg.Auth.RefreshTTL()
	if err != nil {
		return nil, err
	}

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	events := services.NewAccountEventProcessor(stores.Accounts)
	taskQueue := services.NewTaskQueue(&cfg.Redis)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(events.Process)
	}

	// Start async worker if the queue is backed by Redis
	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(events.Process)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start worker")
			}
		}
	}

	redisClient, counter := newAttemptCounter(&cfg.Redis, cfg.Throttle.LoginWindow())

	signer := utils.NewJWTSigner(cfg.Auth.JWTSecret, accessTTL)
	tokenStore := services.NewRefreshTokenStore(stores.RefreshTokens, refreshTTL)
	engine := services.NewTokenRotationEngine(signer, tokenStore, stores.Accounts)
	verifier := services.NewCredentialVerifier(stores.Accounts)
	authService := services.NewAuthService(verifier, engine, taskQueue)
	userService := services.NewUserService(stores.Accounts, taskQueue)

	return &appServices{
		cfg:           cfg,
		stores:        stores,
		taskQueue:     taskQueue,
		worker:        worker,
		redis:         redisClient,
		rateLimiter:   middleware.NewRateLimiter(cfg.Throttle.Limit, cfg.Throttle.Window()),
		loginThrottle: services.NewLoginThrottle(counter, cfg.Throttle.LoginLimit),
		authService:   authService,
		userService:   userService,
		authHandler:   handlers.NewAuthHandler(authService, userService),
		userHandler:   handlers.NewUserHandler(userService),
		healthHandler: handlers.NewHealthHandler(stores, taskQueue),
	}, nil
}

// newAttemptCounter keeps login attempts in Redis when it is reachable so
// every instance sees the same counts; otherwise attempts stay in memory.
func newAttemptCounter(cfg *config.RedisConfig, window time.Duration) (*redis.Client, services.AttemptCounter) {
	if !cfg.Enabled {
		return nil, services.NewMemoryAttemptCounter(window)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnf("[LoginThrottle] Redis unavailable, counting attempts in memory: %v", err)
		_ = client.Close()
		return nil, services.NewMemoryAttemptCounter(window)
	}
	logger.Infof("[LoginThrottle] Counting attempts in Redis at %s", cfg.Addr)
	return client, services.NewRedisAttemptCounter(client, window)
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown(ctx context.Context) {
	s.rateLimiter.Stop()

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
	if err := s.stores.Close(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to close database")
	}
	logger.Info().Msg("All services stopped")
}
