package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/futig/docgen-gateway/internal/config"
	pkgRetry "github.com/futig/docgen-gateway/internal/pkg/retry"
	"github.com/futig/docgen-gateway/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// dbConnectRetry covers a database container that is still starting
var dbConnectRetry = pkgRetry.RetryConfig{
	Attempts: 5,
	Delay:    time.Second,
	MaxDelay: 5 * time.Second,
	Timeout:  30 * time.Second,
}

// setupProfileStore picks the profile repository. Mocks without a database URL
// keep profiles in memory; otherwise the Postgres schema is migrated first.
// The returned pool is nil for the memory store.
func setupProfileStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.ProfileRepository, *pgxpool.Pool, error) {
	if cfg.EnableMocks && cfg.DatabaseURL == "" {
		logger.Info("Using in-memory profile repository")
		return repository.NewProfileMemory(), nil, nil
	}

	db, err := connectProfileDB(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Running profile schema migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	return repository.NewProfilePostgres(db), db, nil
}

func connectProfileDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MinConns = int32(cfg.DBMinConns)
	poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.DBHealthCheckPeriod

	var pool *pgxpool.Pool
	err = dbConnectRetry.Do(ctx, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return fmt.Errorf("create connection pool: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return fmt.Errorf("ping database: %w", err)
		}
		pool = p
		return nil
	}, retry.OnRetry(func(n uint, err error) {
		logger.Warn("profile database not reachable yet",
			zap.Uint("attempt", n+1),
			zap.Error(err),
		)
	}))
	if err != nil {
		return nil, err
	}

	logger.Info("profile database pool established",
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns),
		zap.Duration("health_check_period", poolConfig.HealthCheckPeriod),
	)

	return pool, nil
}
