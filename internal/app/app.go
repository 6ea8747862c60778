// Package app wires configuration, storage, the AI gateway and the
// nutrition service into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/pageza/macrosync/backend/config"
	"github.com/pageza/macrosync/backend/internal/cache"
	"github.com/pageza/macrosync/backend/internal/database"
	"github.com/pageza/macrosync/backend/internal/logging"
	"github.com/pageza/macrosync/backend/internal/middleware"
	"github.com/pageza/macrosync/backend/internal/service"
)

// App holds the long-lived components
type App struct {
	Config  *config.Config
	Service *service.NutritionService
	Limiter *middleware.RateLimiter

	redis   *redis.Client
	backend *service.GenAIBackend
}

// New builds the application from cfg. A missing API key is not an error;
// the features then serve fallback content.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := logging.Setup(cfg.LogLevel, cfg.PrettyLogs); err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	a := &App{Config: cfg}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	var backend service.Backend
	if cfg.HasAPIKey() {
		a.backend, err = service.NewGenAIBackend(ctx, cfg.APIKey)
		if err != nil {
			a.Close()
			return nil, err
		}
		backend = a.backend
	} else {
		log.Warn().Msg("no API key configured, serving fallback content")
	}

	gateway := service.NewAIGateway(backend, service.GatewayConfig{
		APIKey:        cfg.APIKey,
		Model:         cfg.Model,
		Timeout:       cfg.RequestTimeout,
		MaxRetries:    cfg.MaxRetries,
		RetryInterval: cfg.RetryInterval,
	})
	a.Service = service.NewNutritionService(gateway, cache.New(store), service.DefaultFallbacks())

	if a.redis != nil {
		a.Limiter = middleware.NewRateLimiter(a.redis, middleware.RateLimitConfig{
			Window: cfg.RateLimitWindow,
			Limit:  cfg.RateLimit,
		})
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context) (cache.Store, error) {
	switch a.Config.CacheBackend {
	case config.CacheBackendMemory:
		log.Info().Msg("using in-memory cache")
		return cache.NewMemoryStore(), nil
	case config.CacheBackendRedis:
		client, err := database.NewRedisClient(ctx, a.Config)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return cache.NewRedisStore(client), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", a.Config.CacheBackend)
}

// Close releases the backend client and the Redis connection
func (a *App) Close() error {
	var errs []error
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
