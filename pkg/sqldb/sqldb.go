package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/benvanstaveren/dbhelper/pkg/driver"
)

// Driver opens database/sql handles for any driver registered with the
// standard library, selected by name at construction time.
type Driver struct {
	driverName string
}

// New creates a driver for the named database/sql driver. The driver
// package must be imported by the application for its side-effect
// registration, e.g. github.com/jackc/pgx/v5/stdlib for "pgx".
func New(driverName string) *Driver {
	return &Driver{driverName: driverName}
}

// Open creates a handle for the given spec and verifies it with a ping.
// Credentials must be embedded in the DSN; database/sql has no portable
// way to apply them separately. Spec options tune the pool, see
// applyOption for the accepted keys.
func (d *Driver) Open(ctx context.Context, spec driver.Spec) (driver.Conn, error) {
	if spec.Username != "" || spec.Password != "" {
		return nil, ErrCredentialsNotSupported
	}

	db, err := sql.Open(d.driverName, spec.DSN)
	if err != nil {
		return nil, errors.Join(ErrFailedToOpen, err)
	}

	for k, v := range spec.Options {
		if err := applyOption(db, k, v); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrFailedToOpen, err)
	}

	return &Conn{db: db, id: uuid.NewString()}, nil
}

// applyOption maps one opaque spec option onto the pool settings.
// Accepted keys: max_open_conns, max_idle_conns, conn_max_lifetime,
// conn_max_idle_time. Durations use Go syntax ("10m").
func applyOption(db *sql.DB, key, value string) error {
	bad := func(err error) error {
		return errors.Join(ErrBadOption, fmt.Errorf("option %q=%q: %w", key, value, err))
	}

	switch key {
	case "max_open_conns":
		n, err := strconv.Atoi(value)
		if err != nil {
			return bad(err)
		}
		db.SetMaxOpenConns(n)
	case "max_idle_conns":
		n, err := strconv.Atoi(value)
		if err != nil {
			return bad(err)
		}
		db.SetMaxIdleConns(n)
	case "conn_max_lifetime":
		d, err := time.ParseDuration(value)
		if err != nil {
			return bad(err)
		}
		db.SetConnMaxLifetime(d)
	case "conn_max_idle_time":
		d, err := time.ParseDuration(value)
		if err != nil {
			return bad(err)
		}
		db.SetConnMaxIdleTime(d)
	default:
		return errors.Join(ErrBadOption, fmt.Errorf("unknown option %q", key))
	}
	return nil
}

// Conn wraps a *sql.DB as a registry-managed handle.
type Conn struct {
	db *sql.DB
	id string
}

// ID returns the unique identifier assigned when the handle was opened.
func (c *Conn) ID() string { return c.id }

// Ping verifies the handle can reach the database.
func (c *Conn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close releases the handle.
func (c *Conn) Close(_ context.Context) error {
	return c.db.Close()
}

// DB returns the native database/sql handle.
func (c *Conn) DB() *sql.DB { return c.db }

// DB unwraps the native database/sql handle from a registry handle.
func DB(conn driver.Conn) (*sql.DB, error) {
	c, ok := conn.(*Conn)
	if !ok {
		return nil, ErrNotSQL
	}
	return c.db, nil
}
