// Package postgres implements the store interfaces on PostgreSQL via pgx.
// Release mutations run inside a single transaction; label descendant
// resolution uses a recursive CTE.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meridianaudio/meridian/internal/store"
	"github.com/rs/zerolog/log"
)

// DB owns the connection pool shared by every store.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL, retrying with exponential backoff, and runs
// migrations when configured.
func New(ctx context.Context, cfg *Config) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = time.Duration(cfg.MaxConnIdleTime) * time.Second
	poolConfig.HealthCheckPeriod = 1 * time.Minute
	poolConfig.ConnConfig.ConnectTimeout = 10 * time.Second

	pool, err := backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			log.Warn().Err(err).Msg("Database not reachable yet, retrying")
			return nil, err
		}
		return p, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(cfg.ConnectAttempts))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info().
		Str("database", poolConfig.ConnConfig.Database).
		Str("host", poolConfig.ConnConfig.Host).
		Int32("max_conns", cfg.MaxConns).
		Msg("Connected to PostgreSQL")

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DB{pool: pool}, nil
}

// Stores returns the store bundle backed by this database.
func (db *DB) Stores() *store.Stores {
	return &store.Stores{
		Users:    &UserStore{pool: db.pool},
		Labels:   &LabelStore{pool: db.pool},
		Artists:  &ArtistStore{pool: db.pool},
		Releases: &ReleaseStore{pool: db.pool},
		Notices:  &NoticeStore{pool: db.pool},
		Revenue:  &RevenueStore{pool: db.pool},
	}
}

// Close releases the connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// scopeArg converts a scope into a query argument: NULL for unscoped, a
// uuid array otherwise. Queries pair it with
// ($n::uuid[] IS NULL OR label_id = ANY($n)).
func scopeArg(scope store.Scope) any {
	if scope.LabelIDs == nil {
		return nil
	}
	return scope.LabelIDs
}
