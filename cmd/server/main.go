package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-directory/internal/api"
	"github.com/99minutos/user-directory/internal/api/handler"
	"github.com/99minutos/user-directory/internal/core/ports"
	"github.com/99minutos/user-directory/internal/core/service"
	"github.com/99minutos/user-directory/internal/infrastructure/config"
	mongostore "github.com/99minutos/user-directory/internal/infrastructure/db/mongo"
	pgstore "github.com/99minutos/user-directory/internal/infrastructure/db/postgres"
	redisstore "github.com/99minutos/user-directory/internal/infrastructure/db/redis"
	"github.com/99minutos/user-directory/pkg/logger"
)

const (
	serviceName     = "user-directory"
	shutdownTimeout = 10 * time.Second
)

func main() {
	_ = godotenv.Load() // load .env if present

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogOutputFormat(),
		Service: serviceName,
	})

	// --- Storage ---
	repo, checks, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Redis (rate limiting) ---
	var limiter *redisstore.RateLimiter
	if cfg.RateLimitEnabled() {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		limiter = redisstore.NewRateLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Period)
		checks["redis"] = redisstore.Pinger(rdb)
	}

	// --- Service and HTTP ---
	users := service.NewUserService(repo, log, service.Options{
		DefaultPageSize: cfg.Paging.DefaultPageSize,
		MaxPageSize:     cfg.Paging.MaxPageSize,
	})

	deps := api.Deps{
		Users:       users,
		Logger:      log,
		Readiness:   checks,
		CORSOrigins: cfg.CORSAllowedOrigins,
	}
	if limiter != nil {
		deps.Limiter = limiter
	}
	e := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Str("storage", cfg.StorageDriver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exited properly")
	return nil
}

// openStore connects the configured backend, prepares its schema and returns
// the repository, its readiness check and a cleanup func.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.UserRepository, map[string]handler.Check, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		if err := pgstore.Migrate(cfg.Postgres.DSN, log); err != nil {
			return nil, nil, nil, err
		}
		pool, err := pgstore.NewPool(ctx, pgstore.Config{
			DSN:             cfg.Postgres.DSN,
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		checks := map[string]handler.Check{"postgres": pool.Ping}
		return pgstore.NewUserRepository(pool), checks, pool.Close, nil

	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(dctx)
		}
		repo := mongostore.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, nil, fmt.Errorf("mongo ensure indexes: %w", err)
		}
		checks := map[string]handler.Check{"mongodb": mongostore.Pinger(client)}
		return repo, checks, closeFn, nil
	}
}
