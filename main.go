package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"dashboard-api/api"
	"dashboard-api/config"
	"dashboard-api/hashid"
	"dashboard-api/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if cfg.DefaultSalt() {
		log.Warn("HASHIDS_SALT not set; using the development salt")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ids, err := hashid.New(cfg.HashidsSalt, cfg.HashidsMinLength)
	if err != nil {
		log.Fatalf("hashids: %v", err)
	}

	db, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer db.Close()
	if cfg.DatabaseDriver == storage.DriverSQLite {
		// Postgres schemas are owned by storage-init; a local SQLite file is
		// migrated in place.
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	opts := api.Options{Store: db, IDs: ids, Logger: log.StandardLogger()}
	if cfg.RedisConnectionString != "" {
		rc := storage.NewRedisClient(cfg.RedisConnectionString)
		defer rc.Close()
		opts.Store = storage.NewCache(db, rc, cfg.CacheTTL)
		if cfg.IdempotencyTTL > 0 {
			opts.Deduper = api.NewRedisDeduper(rc, cfg.IdempotencyTTL)
		}
	} else {
		log.Info("REDIS_CONNECTION_STRING not set; caching disabled")
	}

	auth, err := newAuth(cfg)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}
	if auth != nil {
		opts.Auth = auth
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, api.HeaderIdempotencyKey},
	}))
	e.Use(echoprometheus.NewMiddleware("dashboard_api"))
	e.GET("/metrics", echoprometheus.NewHandler())

	api.Register(e, opts)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

// newAuth returns nil when AUTH_MODE is empty.
func newAuth(cfg config.Config) (*api.Auth, error) {
	switch cfg.AuthMode {
	case config.AuthJWKS:
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", cfg.Auth0Domain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{RefreshInterval: time.Hour})
		if err != nil {
			return nil, fmt.Errorf("jwks: %w", err)
		}
		return api.NewAuth(jwks, cfg.Auth0Audience, "https://"+cfg.Auth0Domain+"/", cfg.JWKSCacheTTL), nil
	case config.AuthHS256:
		return api.NewSharedSecretAuth([]byte(cfg.AuthSecret), cfg.Auth0Audience, ""), nil
	}
	return nil, nil
}
