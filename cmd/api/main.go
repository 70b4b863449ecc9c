package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Overland-East-Bay/travel-log-api/internal/adapters/httpapi"
	memidempotency "github.com/Overland-East-Bay/travel-log-api/internal/adapters/memory/idempotency"
	memtravelrepo "github.com/Overland-East-Bay/travel-log-api/internal/adapters/memory/travelrepo"
	postgres "github.com/Overland-East-Bay/travel-log-api/internal/adapters/postgres"
	pgidempotency "github.com/Overland-East-Bay/travel-log-api/internal/adapters/postgres/idempotency"
	pgtravelrepo "github.com/Overland-East-Bay/travel-log-api/internal/adapters/postgres/travelrepo"
	redisadapter "github.com/Overland-East-Bay/travel-log-api/internal/adapters/redis"
	redisidempotency "github.com/Overland-East-Bay/travel-log-api/internal/adapters/redis/idempotency"
	redistravelrepo "github.com/Overland-East-Bay/travel-log-api/internal/adapters/redis/travelrepo"
	"github.com/Overland-East-Bay/travel-log-api/internal/app/travels"
	"github.com/Overland-East-Bay/travel-log-api/internal/platform/auth/jwtverifier"
	platformclock "github.com/Overland-East-Bay/travel-log-api/internal/platform/clock"
	"github.com/Overland-East-Bay/travel-log-api/internal/platform/config"
	"github.com/Overland-East-Bay/travel-log-api/internal/platform/logging"
	idempotencyport "github.com/Overland-East-Bay/travel-log-api/internal/ports/out/idempotency"
	travelrepoport "github.com/Overland-East-Bay/travel-log-api/internal/ports/out/travelrepo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid config", "err", err)
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("invalid logging config", "err", err)
	}

	// Auth configuration:
	// - Production: require JWT_* env vars and enforce bearer auth
	// - Local dev: set AUTH_MODE=dev to bypass JWT verification and use X-Debug-Subject
	var (
		authMW     func(http.Handler) http.Handler
		authIssuer string
	)
	switch cfg.AuthMode {
	case config.AuthModeDev:
		logger.Warn("AUTH_MODE=dev: bearer tokens are not verified")
		authMW = httpapi.NewDevAuthMiddleware(cfg.DevSubject)
		authIssuer = "dev"
	default:
		verifier := jwtverifier.New(cfg.JWT)
		authMW = httpapi.NewAuthMiddleware(verifier, logger)
		authIssuer = cfg.JWT.Issuer
	}

	clk := platformclock.NewSystemClock()

	var (
		travelRepo travelrepoport.Repository
		idemStore  idempotencyport.Store
		cleanup    func()
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(startCtx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: cfg.DBMaxConns})
		if err != nil {
			logger.Fatal("invalid postgres config", "err", err)
		}
		if err := postgres.Migrate(startCtx, pool); err != nil {
			logger.Fatal("apply schema", "err", err)
		}
		cleanup = pool.Close

		travelRepo = pgtravelrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool, authIssuer, cfg.IdempotencyTTL)
	case config.BackendRedis:
		client, err := redisadapter.NewClient(startCtx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("invalid redis config", "err", err)
		}
		cleanup = func() { _ = client.Close() }

		travelRepo = redistravelrepo.NewRepo(client, cfg.RedisKeyPrefix)
		idemStore = redisidempotency.NewStore(client, cfg.RedisKeyPrefix, cfg.IdempotencyTTL)
	default:
		travelRepo = memtravelrepo.NewRepo()
		idemStore = memidempotency.NewStore(clk, cfg.IdempotencyTTL)
	}
	cancelStart()

	if cleanup != nil {
		defer cleanup()
	}

	api := httpapi.NewServer(travels.NewService(travelRepo), idemStore, logger)
	api.Clock = clk

	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		AuthMiddleware:     authMW,
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout:     cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("api listening", "port", cfg.Port, "storage", cfg.StorageBackend, "auth", cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
