// Package config reads process settings from the environment. A .env file in
// the working directory is loaded first; variables already set win.
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

// DefaultHashidsSalt is only suitable for local development.
const DefaultHashidsSalt = "super-secret-salt"

// Auth modes accepted in AUTH_MODE.
const (
	AuthNone  = ""
	AuthJWKS  = "jwks"
	AuthHS256 = "hs256"
)

const (
	driverPgx  = "pgx"
	driverLite = "sqlite3"
)

type Config struct {
	Port  string
	Debug bool

	DatabaseDriver string
	DatabaseURL    string

	HashidsSalt      string
	HashidsMinLength int

	RedisConnectionString string
	CacheTTL              time.Duration
	IdempotencyTTL        time.Duration

	AuthMode      string
	Auth0Domain   string
	Auth0Audience string
	AuthSecret    string
	JWKSCacheTTL  time.Duration

	CORSAllowOrigins []string
}

// DefaultSalt reports whether tokens are minted with the development salt.
func (c Config) DefaultSalt() bool {
	return c.HashidsSalt == DefaultHashidsSalt
}

// Load reads .env, if present, and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv and validates it.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:                  withDefault(getenv("PORT"), "3001"),
		DatabaseDriver:        withDefault(getenv("DATABASE_DRIVER"), driverPgx),
		DatabaseURL:           getenv("DATABASE_URL"),
		HashidsSalt:           withDefault(getenv("HASHIDS_SALT"), DefaultHashidsSalt),
		HashidsMinLength:      8,
		RedisConnectionString: getenv("REDIS_CONNECTION_STRING"),
		CacheTTL:              5 * time.Minute,
		IdempotencyTTL:        24 * time.Hour,
		AuthMode:              strings.ToLower(strings.TrimSpace(getenv("AUTH_MODE"))),
		Auth0Domain:           getenv("AUTH0_DOMAIN"),
		Auth0Audience:         getenv("AUTH0_AUDIENCE"),
		AuthSecret:            getenv("LOCAL_AUTH_SHARED_SECRET"),
		JWKSCacheTTL:          15 * time.Minute,
		CORSAllowOrigins:      splitList(withDefault(getenv("CORS_ALLOW_ORIGINS"), "*")),
	}

	var err error
	if v := getenv("DEBUG"); v != "" {
		if cfg.Debug, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("invalid DEBUG: %w", err)
		}
	}
	if v := getenv("HASHIDS_MIN_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid HASHIDS_MIN_LENGTH %q", v)
		}
		cfg.HashidsMinLength = n
	}
	if cfg.CacheTTL, err = duration(getenv, "CACHE_TTL", cfg.CacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = duration(getenv, "IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.JWKSCacheTTL, err = duration(getenv, "JWKS_CACHE_TTL", cfg.JWKSCacheTTL); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseDriver != driverPgx && cfg.DatabaseDriver != driverLite {
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("missing DATABASE_URL")
	}

	switch cfg.AuthMode {
	case AuthNone:
	case AuthJWKS:
		if cfg.Auth0Domain == "" || cfg.Auth0Audience == "" {
			return Config{}, errors.New("AUTH0_DOMAIN and AUTH0_AUDIENCE must be set when AUTH_MODE=jwks")
		}
	case AuthHS256:
		if cfg.AuthSecret == "" {
			return Config{}, errors.New("LOCAL_AUTH_SHARED_SECRET must be set when AUTH_MODE=hs256")
		}
	default:
		return Config{}, fmt.Errorf("unsupported AUTH_MODE %q", cfg.AuthMode)
	}
	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// duration parses key as a time.Duration. Zero disables the feature it
// controls; negative values are rejected.
func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
