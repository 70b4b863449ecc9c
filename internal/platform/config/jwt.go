package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	AlgHS256 = "HS256"
	AlgRS256 = "RS256"
)

// JWTConfig configures bearer token verification.
//
// HS256 verifies against a shared secret. RS256 verifies against keys fetched
// from a JWKS endpoint and requires issuer and audience.
type JWTConfig struct {
	Algorithm string
	Secret    []byte

	Issuer   string
	Audience string
	JWKSURL  string

	ClockSkew              time.Duration
	JWKSRefreshInterval    time.Duration
	JWKSMinRefreshInterval time.Duration

	HTTPTimeout time.Duration
}

// Validate reports a configuration that cannot verify any token.
func (c JWTConfig) Validate() error {
	switch c.Algorithm {
	case AlgHS256:
		if len(c.Secret) == 0 {
			return errors.New("JWT_SECRET is required for HS256")
		}
	case AlgRS256:
		if c.Issuer == "" || c.Audience == "" || c.JWKSURL == "" {
			return errors.New("missing required env vars for RS256: JWT_ISSUER, JWT_AUDIENCE, JWT_JWKS_URL")
		}
	default:
		return fmt.Errorf("JWT_ALGORITHM must be HS256 or RS256, got %q", c.Algorithm)
	}
	if c.ClockSkew < 0 {
		return errors.New("JWT_CLOCK_SKEW must not be negative")
	}
	return nil
}

func LoadJWTConfigFromEnv() (JWTConfig, error) {
	return LoadJWTConfig(os.Getenv)
}

// LoadJWTConfig reads JWT_* variables through getenv.
func LoadJWTConfig(getenv func(string) string) (JWTConfig, error) {
	secret := getenv("JWT_SECRET")

	alg := strings.ToUpper(strings.TrimSpace(getenv("JWT_ALGORITHM")))
	if alg == "" {
		alg = AlgRS256
		if secret != "" {
			alg = AlgHS256
		}
	}

	cfg := JWTConfig{
		Algorithm: alg,
		Secret:    []byte(secret),
		Issuer:    getenv("JWT_ISSUER"),
		Audience:  getenv("JWT_AUDIENCE"),
		JWKSURL:   getenv("JWT_JWKS_URL"),
		ClockSkew: 30 * time.Second,
		// Refresh periodically to pick up key rotation even if an old key is still cached.
		JWKSRefreshInterval: 5 * time.Minute,
		// Bound refresh frequency when a token presents an unknown kid.
		JWKSMinRefreshInterval: 10 * time.Second,
		HTTPTimeout:            5 * time.Second,
	}

	var err error
	if cfg.ClockSkew, err = durationVar(getenv, "JWT_CLOCK_SKEW", cfg.ClockSkew); err != nil {
		return JWTConfig{}, err
	}
	if cfg.JWKSRefreshInterval, err = durationVar(getenv, "JWT_JWKS_REFRESH_INTERVAL", cfg.JWKSRefreshInterval); err != nil {
		return JWTConfig{}, err
	}
	if cfg.JWKSMinRefreshInterval, err = durationVar(getenv, "JWT_JWKS_MIN_REFRESH_INTERVAL", cfg.JWKSMinRefreshInterval); err != nil {
		return JWTConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		return JWTConfig{}, err
	}
	return cfg, nil
}

func durationVar(getenv func(string) string, name string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(name))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 30s): %w", name, err)
	}
	return d, nil
}
