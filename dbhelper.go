package dbhelper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/benvanstaveren/dbhelper/internal"
	"github.com/benvanstaveren/dbhelper/pkg/driver"
)

// Type aliases - public API
type (
	// Registry holds one connection slot per exposed name and hands out
	// accessors that lazily re-validate handles.
	Registry = internal.Registry

	// Spec describes one named database connection.
	Spec = internal.Spec

	// Option configures the registry.
	Option = internal.Option

	// CheckFunc is the health probe signature exposed per database.
	CheckFunc = internal.CheckFunc

	// Driver opens connections for one database kind.
	Driver = driver.Driver

	// Conn is an open handle managed by the registry.
	Conn = driver.Conn
)

const (
	// DefaultName is used when a single database is configured without
	// an explicit exposed name.
	DefaultName = internal.DefaultName

	// DefaultCheckInterval applies when a spec leaves CheckInterval zero.
	DefaultCheckInterval = internal.DefaultCheckInterval

	// CheckAlways makes the accessor probe the handle on every call.
	CheckAlways time.Duration = internal.CheckAlways
)

// New validates the configured specs, opens the initial connections, and
// returns a registry exposing one accessor per name.
//
// Example:
//
//	reg, err := dbhelper.New(ctx,
//	    dbhelper.WithDriver("postgres", postgres.New()),
//	    dbhelper.WithDatabase("main", dbhelper.Spec{
//	        DSN: os.Getenv("DATABASE_URL"),
//	    }),
//	    dbhelper.WithLogger(slog.Default()),
//	)
func New(ctx context.Context, opts ...Option) (*Registry, error) {
	return internal.New(ctx, opts...)
}

// WithDriver registers a driver under the given name. The first driver
// registered becomes the default unless WithDefaultDriver overrides it.
func WithDriver(name string, drv Driver) Option {
	return internal.WithDriver(name, drv)
}

// WithDefaultDriver sets the driver used by specs that don't name one.
func WithDefaultDriver(name string) Option {
	return internal.WithDefaultDriver(name)
}

// WithDatabase adds one named database spec.
func WithDatabase(name string, spec Spec) Option {
	return internal.WithDatabase(name, spec)
}

// WithDatabases adds a mapping of exposed name to spec.
func WithDatabases(specs map[string]Spec) Option {
	return internal.WithDatabases(specs)
}

// WithConfigYAML adds a YAML configuration block.
//
// Example:
//
//	databases:
//	  main:
//	    driver: postgres
//	    dsn: postgres://localhost:5432/app
//	    check_interval: 45s
//	  cache:
//	    driver: redis
//	    dsn: redis://localhost:6379/0
//
// A bare spec without the databases mapping registers a single database
// under DefaultName.
func WithConfigYAML(data []byte) Option {
	return internal.WithConfigYAML(data)
}

// WithLogger sets the logger for probe failures and reconnects.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// Shutdown returns a shutdown hook that closes every registered handle.
// Use with whatever graceful-shutdown mechanism the host application has.
func Shutdown(reg *Registry) func(ctx context.Context) error {
	return reg.Close
}

// Registry errors for checking return values.
var (
	ErrEmptyDSN          = internal.ErrEmptyDSN
	ErrUnknownDriver     = internal.ErrUnknownDriver
	ErrUnknownDatabase   = internal.ErrUnknownDatabase
	ErrNoDatabases       = internal.ErrNoDatabases
	ErrDuplicateDatabase = internal.ErrDuplicateDatabase
	ErrClosed            = internal.ErrClosed
	ErrOpenFailed        = internal.ErrOpenFailed
	ErrParseConfig       = internal.ErrParseConfig
	ErrHealthcheckFailed = internal.ErrHealthcheckFailed
)

// ErrNotConfigured is returned by ConnFromContext when no registry was
// stored in the context, i.e. the middlewares.DB middleware is missing.
var ErrNotConfigured = errors.New("dbhelper: registry not found in context")

type ctxKey struct{}

// NewContext returns a context carrying the registry. Used by the
// middlewares package to make accessors reachable from handler code.
func NewContext(ctx context.Context, reg *Registry) context.Context {
	return context.WithValue(ctx, ctxKey{}, reg)
}

// FromContext retrieves the registry stored by NewContext.
func FromContext(ctx context.Context) (*Registry, bool) {
	reg, ok := ctx.Value(ctxKey{}).(*Registry)
	return reg, ok
}

// ConnFromContext is a shortcut for fetching a handle from the registry
// stored in the request context.
func ConnFromContext(ctx context.Context, name string) (Conn, error) {
	reg, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNotConfigured
	}
	return reg.Conn(ctx, name)
}
