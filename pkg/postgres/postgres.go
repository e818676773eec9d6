package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/benvanstaveren/dbhelper/pkg/driver"
)

// Driver opens pgx connection pools for the dbhelper registry.
type Driver struct {
	opts *options
}

// New creates a PostgreSQL driver with sensible pool defaults.
func New(opts ...Option) *Driver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Driver{opts: o}
}

// Open establishes a connection pool for the given spec. Credentials
// override the ones embedded in the DSN; spec options go verbatim into
// the server runtime parameters. Transient open failures are retried
// with exponential backoff so a restarting database doesn't fail the
// whole registration.
func (d *Driver) Open(ctx context.Context, spec driver.Spec) (driver.Conn, error) {
	cfg, err := pgxpool.ParseConfig(spec.DSN)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDSN, err)
	}
	if spec.Username != "" {
		cfg.ConnConfig.User = spec.Username
	}
	if spec.Password != "" {
		cfg.ConnConfig.Password = spec.Password
	}
	for k, v := range spec.Options {
		cfg.ConnConfig.RuntimeParams[k] = v
	}
	cfg.MaxConns = d.opts.maxConns
	cfg.MinConns = d.opts.minConns
	cfg.MaxConnIdleTime = d.opts.maxConnIdleTime
	cfg.MaxConnLifetime = d.opts.maxConnLifetime
	cfg.HealthCheckPeriod = d.opts.healthCheckPeriod

	attempts := max(d.opts.retryAttempts, 1)
	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			// A ping catches authentication and permission issues that
			// pool construction alone does not.
			if err = pool.Ping(ctx); err == nil {
				return &Conn{pool: pool, id: uuid.NewString()}, nil
			}
			pool.Close()
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpen, ctx.Err())
		case <-time.After(time.Duration(i+1) * d.opts.retryInterval):
		}
	}

	return nil, ErrFailedToOpen
}

// Conn wraps a pgx pool as a registry-managed handle.
type Conn struct {
	pool *pgxpool.Pool
	id   string
}

// ID returns the unique identifier assigned when the pool was opened.
func (c *Conn) ID() string { return c.id }

// Ping verifies the pool can reach the database.
func (c *Conn) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close releases the pool.
func (c *Conn) Close(_ context.Context) error {
	c.pool.Close()
	return nil
}

// Pool returns the native pgx pool.
func (c *Conn) Pool() *pgxpool.Pool { return c.pool }

// Pool unwraps the native pgx pool from a registry handle.
func Pool(conn driver.Conn) (*pgxpool.Pool, error) {
	c, ok := conn.(*Conn)
	if !ok {
		return nil, ErrNotPostgres
	}
	return c.pool, nil
}
