package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/benvanstaveren/dbhelper/pkg/driver"
)

// Driver opens go-redis clients for the dbhelper registry.
type Driver struct {
	opts *options
}

// New creates a Redis driver with sensible defaults.
// Supports both redis:// and rediss:// (TLS) URL schemes.
func New(opts ...Option) *Driver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Driver{opts: o}
}

// Open creates a client for the given spec and verifies it with a ping,
// retrying with exponential backoff. Spec credentials override the ones
// embedded in the URL; spec options override individual client settings,
// see applyOption for the accepted keys.
func (d *Driver) Open(ctx context.Context, spec driver.Spec) (driver.Conn, error) {
	if !strings.HasPrefix(spec.DSN, "redis://") && !strings.HasPrefix(spec.DSN, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	redisOpts, err := redis.ParseURL(spec.DSN)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}

	if spec.Username != "" {
		redisOpts.Username = spec.Username
	}
	if spec.Password != "" {
		redisOpts.Password = spec.Password
	}

	redisOpts.PoolSize = d.opts.poolSize
	redisOpts.MinIdleConns = d.opts.minIdleConns
	redisOpts.ConnMaxIdleTime = d.opts.maxIdleTime
	redisOpts.ConnMaxLifetime = d.opts.maxActiveTime
	redisOpts.ReadTimeout = d.opts.readTimeout
	redisOpts.WriteTimeout = d.opts.writeTimeout
	redisOpts.DialTimeout = d.opts.dialTimeout

	for k, v := range spec.Options {
		if err := applyOption(redisOpts, k, v); err != nil {
			return nil, err
		}
	}

	attempts := max(d.opts.retryAttempts, 1)
	for i := range attempts {
		client := redis.NewClient(redisOpts)

		if err := client.Ping(ctx).Err(); err == nil {
			return &Conn{client: client, id: uuid.NewString()}, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnectionFailed, ctx.Err())
		case <-time.After(time.Duration(i+1) * d.opts.retryInterval):
		}
	}

	return nil, ErrConnectionFailed
}

// applyOption maps one opaque spec option onto the client settings.
// Accepted keys: db, pool_size, min_idle_conns, read_timeout,
// write_timeout, dial_timeout. Durations use Go syntax ("3s").
func applyOption(o *redis.Options, key, value string) error {
	bad := func(err error) error {
		return errors.Join(ErrBadOption, fmt.Errorf("option %q=%q: %w", key, value, err))
	}

	switch key {
	case "db":
		n, err := strconv.Atoi(value)
		if err != nil {
			return bad(err)
		}
		o.DB = n
	case "pool_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return bad(err)
		}
		o.PoolSize = n
	case "min_idle_conns":
		n, err := strconv.Atoi(value)
		if err != nil {
			return bad(err)
		}
		o.MinIdleConns = n
	case "read_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return bad(err)
		}
		o.ReadTimeout = d
	case "write_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return bad(err)
		}
		o.WriteTimeout = d
	case "dial_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return bad(err)
		}
		o.DialTimeout = d
	default:
		return errors.Join(ErrBadOption, fmt.Errorf("unknown option %q", key))
	}
	return nil
}

// Conn wraps a go-redis client as a registry-managed handle.
type Conn struct {
	client redis.UniversalClient
	id     string
}

// ID returns the unique identifier assigned when the client was opened.
func (c *Conn) ID() string { return c.id }

// Ping verifies the client can reach the server.
func (c *Conn) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client.
func (c *Conn) Close(_ context.Context) error {
	return c.client.Close()
}

// Client returns the native go-redis client.
func (c *Conn) Client() redis.UniversalClient { return c.client }

// Client unwraps the native go-redis client from a registry handle.
func Client(conn driver.Conn) (redis.UniversalClient, error) {
	c, ok := conn.(*Conn)
	if !ok {
		return nil, ErrNotRedis
	}
	return c.client, nil
}
