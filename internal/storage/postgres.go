// Package storage owns the relational persistence of job records: the
// bounded pgx connection pool, the idempotent record writer, lookup
// resolution for the many-to-many attributes, and the read queries.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobdex/internal/config"
)

// NewPool creates and verifies a pgx connection pool sized per the
// configuration. A pool that cannot be initialized (bad credentials or
// unreachable store) is fatal to startup and is not retried here.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.ConnConfig.ConnectTimeout = cfg.Database.AcquireTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}
