// Package postgres stores rule resources in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/pf2e-sheet/internal/config"
)

// ErrSchemaMissing is returned by Health when the database answers but the
// resources table has not been migrated.
var ErrSchemaMissing = errors.New("postgres: resources table missing; run migrate up")

// Pool wraps a pgx connection pool holding the resource schema.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the database described by cfg.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a pinged Pool or a non-nil error. The schema is not
// checked; call Health for that.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool for %s/%s: %w", cfg.Host, cfg.Name, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging %s/%s: %w", cfg.Host, cfg.Name, err)
	}
	return &Pool{pool: pool}, nil
}

// Health checks, within timeout, that the database answers and that the
// resources table exists.
//
// Postcondition: Returns ErrSchemaMissing when the database is reachable but
// unmigrated.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var migrated bool
	err := p.pool.QueryRow(ctx, `SELECT to_regclass('public.resources') IS NOT NULL`).Scan(&migrated)
	if err != nil {
		return fmt.Errorf("checking schema: %w", err)
	}
	if !migrated {
		return ErrSchemaMissing
	}
	return nil
}

// Resources returns a repository over this pool.
func (p *Pool) Resources() *ResourceRepository {
	return NewResourceRepository(p.pool)
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
