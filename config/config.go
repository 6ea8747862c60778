package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort     string
	ServerHost     string
	AllowedOrigins []string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// CacheBackend selects the resilience cache store: "redis" or "memory"
	CacheBackend string

	// Generative backend
	APIKey         string
	Model          string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryInterval  time.Duration

	// Rate limiting per client IP
	RateLimit       int
	RateLimitWindow time.Duration

	LogLevel   string
	PrettyLogs bool
}

const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	// A local .env file is only honored outside production and CI
	if env == Development || env == Test {
		loadDotEnv()
	}

	cfg, err := load(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func load(env Environment) (*Config, error) {
	v := values{env: env}
	cfg := &Config{
		Environment:     env,
		ServerPort:      v.str("SERVER_PORT", "8080"),
		ServerHost:      v.str("SERVER_HOST", "0.0.0.0"),
		AllowedOrigins:  v.list("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RedisHost:       v.str("REDIS_HOST", "localhost"),
		RedisPort:       v.str("REDIS_PORT", "6379"),
		RedisPassword:   v.str("REDIS_PASSWORD", ""),
		RedisDB:         v.integer("REDIS_DB", 0),
		RedisURL:        v.str("REDIS_URL", ""),
		CacheBackend:    strings.ToLower(v.str("CACHE_BACKEND", CacheBackendRedis)),
		APIKey:          v.apiKey(),
		Model:           v.str("GEMINI_MODEL", "gemini-1.5-flash"),
		RequestTimeout:  v.duration("AI_REQUEST_TIMEOUT", 30*time.Second),
		MaxRetries:      v.integer("AI_MAX_RETRIES", 0),
		RetryInterval:   v.duration("AI_RETRY_INTERVAL", 500*time.Millisecond),
		RateLimit:       v.integer("RATE_LIMIT", 60),
		RateLimitWindow: v.duration("RATE_LIMIT_WINDOW", time.Minute),
		LogLevel:        strings.ToLower(v.str("LOG_LEVEL", "info")),
		PrettyLogs:      v.boolean("PRETTY_LOGS", env == Development),
	}
	if len(v.errs) > 0 {
		return nil, fmt.Errorf("invalid values:\n%s", strings.Join(v.errs, "\n"))
	}
	return cfg, nil
}

// values resolves a setting from the environment first, then from a Docker
// secret named after the lowercased variable.
type values struct {
	env  Environment
	errs []string
}

func (v *values) lookup(name string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	if v.env.usesSecrets() {
		return readSecret(strings.ToLower(name))
	}
	return ""
}

func (v *values) str(name, def string) string {
	if val := v.lookup(name); val != "" {
		return val
	}
	return def
}

func (v *values) integer(name string, def int) int {
	raw := v.lookup(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		v.errs = append(v.errs, fmt.Sprintf("%s: %q is not an integer", name, raw))
		return def
	}
	return n
}

func (v *values) boolean(name string, def bool) bool {
	raw := v.lookup(name)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		v.errs = append(v.errs, fmt.Sprintf("%s: %q is not a boolean", name, raw))
		return def
	}
	return b
}

func (v *values) duration(name string, def time.Duration) time.Duration {
	raw := v.lookup(name)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		v.errs = append(v.errs, fmt.Sprintf("%s: %q is not a duration", name, raw))
		return def
	}
	return d
}

func (v *values) list(name string, def []string) []string {
	raw := v.lookup(name)
	if raw == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// apiKey resolves the generative backend credential. A missing key is not a
// load error; the gateway reports it on each call.
func (v *values) apiKey() string {
	for _, name := range []string{"API_KEY", "GEMINI_API_KEY"} {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
	}
	if path := os.Getenv("GEMINI_API_KEY_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			v.errs = append(v.errs, fmt.Sprintf("GEMINI_API_KEY_FILE: failed to read %s: %v", path, err))
			return ""
		}
		return strings.TrimSpace(string(data))
	}
	if v.env.usesSecrets() {
		return readSecret("gemini_api_key")
	}
	return ""
}

// RedisAddr is the host:port of the Redis server
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// ListenAddr is the address the HTTP server binds to
func (c *Config) ListenAddr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// HasAPIKey reports whether a backend credential is configured
func (c *Config) HasAPIKey() bool {
	return c.APIKey != ""
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
