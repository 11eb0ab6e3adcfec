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

	"github.com/rs/zerolog"

	"github.com/smart-inventory/inventory-api/internal/api"
	"github.com/smart-inventory/inventory-api/internal/api/handler"
	"github.com/smart-inventory/inventory-api/internal/core/password"
	"github.com/smart-inventory/inventory-api/internal/core/service"
	"github.com/smart-inventory/inventory-api/internal/infrastructure/config"
	redisdb "github.com/smart-inventory/inventory-api/internal/infrastructure/db/redis"
	"github.com/smart-inventory/inventory-api/internal/infrastructure/db/sqlstore"
	"github.com/smart-inventory/inventory-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "inventory-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "inventory-api",
	})

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()
	log.Info().Str("driver", cfg.DB.Driver).Msg("database ready")

	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	readiness := map[string]handler.PingFunc{"database": store.Ping}
	opts := service.Options{RefreshChecksUser: cfg.Auth.RefreshCheckActive}

	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close redis client")
			}
		}()

		opts.Limiter = redisdb.NewLoginThrottle(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockout)
		readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login throttling enabled")
	}

	authService := service.NewAuthService(
		store,
		password.NewBcryptHasher(cfg.Auth.BcryptCost),
		tokens,
		opts,
		logger.Component("auth"),
	)

	if cfg.Admin.Password != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return err
		}
	}

	e := api.NewRouter(api.Deps{
		AuthService: authService,
		Tokens:      tokens,
		Readiness:   readiness,
		Logger:      logger.Component("http"),
		StaticDir:   cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return shutdown(e.Shutdown, log)
}

func openStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	switch cfg.DB.Driver {
	case config.DriverMySQL:
		return sqlstore.OpenMySQL(ctx, sqlstore.MySQLConfig{
			Host:            cfg.MySQL.Host,
			Port:            cfg.MySQL.Port,
			User:            cfg.MySQL.User,
			Password:        cfg.MySQL.Password,
			Database:        cfg.MySQL.Database,
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		})
	default:
		return sqlstore.OpenSQLite(ctx, sqlstore.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
		})
	}
}

func shutdown(stop func(context.Context) error, log zerolog.Logger) error {
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := stop(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
