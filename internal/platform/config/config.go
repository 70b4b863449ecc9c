package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthModeJWT = "jwt"
	AuthModeDev = "dev"

	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the process configuration for cmd/api.
type Config struct {
	Port string

	AuthMode   string
	DevSubject string
	// JWT is populated only when AuthMode is "jwt".
	JWT JWTConfig

	StorageBackend string
	DatabaseURL    string
	DBMaxConns     int32
	RedisURL       string
	RedisKeyPrefix string

	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	IdempotencyTTL     time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file from the working directory and then the
// process environment. Variables already set in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv without touching the filesystem.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:           get("PORT", "8080"),
		AuthMode:       strings.ToLower(get("AUTH_MODE", AuthModeJWT)),
		DevSubject:     get("DEV_SUBJECT", "dev|local"),
		StorageBackend: strings.ToLower(get("STORAGE_BACKEND", BackendMemory)),
		DatabaseURL:    getenv("DATABASE_URL"),
		RedisURL:       getenv("REDIS_URL"),
		RedisKeyPrefix: get("REDIS_KEY_PREFIX", "travels:"),
		LogLevel:       strings.ToLower(get("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(get("LOG_FORMAT", "text")),
	}

	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return Config{}, fmt.Errorf("PORT must be a port number, got %q", cfg.Port)
	}

	switch cfg.AuthMode {
	case AuthModeDev:
	case AuthModeJWT:
		jwtCfg, err := LoadJWTConfig(getenv)
		if err != nil {
			return Config{}, err
		}
		cfg.JWT = jwtCfg
	default:
		return Config{}, fmt.Errorf("AUTH_MODE must be jwt or dev, got %q", cfg.AuthMode)
	}

	switch cfg.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for STORAGE_BACKEND=postgres")
		}
	case BackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, errors.New("REDIS_URL is required for STORAGE_BACKEND=redis")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be memory, postgres or redis, got %q", cfg.StorageBackend)
	}

	if v := strings.TrimSpace(getenv("DB_MAX_CONNS")); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("DB_MAX_CONNS must be a non-negative integer, got %q", v)
		}
		cfg.DBMaxConns = int32(n)
	}

	for _, o := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	var err error
	if cfg.RequestTimeout, err = durationVar(getenv, "REQUEST_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationVar(getenv, "IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout < 0 || cfg.IdempotencyTTL < 0 {
		return Config{}, errors.New("REQUEST_TIMEOUT and IDEMPOTENCY_TTL must not be negative")
	}

	switch cfg.LogFormat {
	case "text", "json", "logfmt":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT must be text, json or logfmt, got %q", cfg.LogFormat)
	}

	return cfg, nil
}
