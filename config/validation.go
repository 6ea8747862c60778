package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks every setting and reports all problems at once
func ValidateConfig(cfg *Config) error {
	var errors []ValidationError

	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port < 1 || port > 65535 {
		errors = append(errors, ValidationError{"SERVER_PORT", fmt.Sprintf("%q is not a valid port", cfg.ServerPort)})
	}

	switch cfg.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if cfg.RedisURL == "" && (cfg.RedisHost == "" || cfg.RedisPort == "") {
			errors = append(errors, ValidationError{"REDIS_HOST", "redis cache requires REDIS_URL or REDIS_HOST and REDIS_PORT"})
		}
		if cfg.RedisDB < 0 {
			errors = append(errors, ValidationError{"REDIS_DB", "must not be negative"})
		}
	default:
		errors = append(errors, ValidationError{"CACHE_BACKEND", fmt.Sprintf("%q must be %s or %s", cfg.CacheBackend, CacheBackendRedis, CacheBackendMemory)})
	}

	if cfg.Model == "" {
		errors = append(errors, ValidationError{"GEMINI_MODEL", "must not be empty"})
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, ValidationError{"AI_REQUEST_TIMEOUT", "must be positive"})
	}
	if cfg.MaxRetries < 0 {
		errors = append(errors, ValidationError{"AI_MAX_RETRIES", "must not be negative"})
	}
	if cfg.MaxRetries > 0 && cfg.RetryInterval <= 0 {
		errors = append(errors, ValidationError{"AI_RETRY_INTERVAL", "must be positive when retries are enabled"})
	}
	if cfg.RateLimit <= 0 {
		errors = append(errors, ValidationError{"RATE_LIMIT", "must be positive"})
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, ValidationError{"RATE_LIMIT_WINDOW", "must be positive"})
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		errors = append(errors, ValidationError{"LOG_LEVEL", fmt.Sprintf("unknown level %q", cfg.LogLevel)})
	}

	// Production must not accept browser requests from anywhere
	if cfg.Environment == Production {
		for _, origin := range cfg.AllowedOrigins {
			if origin == "*" {
				errors = append(errors, ValidationError{"ALLOWED_ORIGINS", "wildcard origin is not allowed in production"})
			}
		}
	}

	if len(errors) > 0 {
		msgs := make([]string, len(errors))
		for i, e := range errors {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(msgs, "\n"))
	}

	return nil
}
