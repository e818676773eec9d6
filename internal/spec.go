package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvanstaveren/dbhelper/pkg/driver"
)

const (
	// DefaultName is the exposed name used when a single database is
	// configured without an explicit one.
	DefaultName = "db"

	// DefaultCheckInterval is applied when a spec leaves CheckInterval
	// at its zero value. 30 seconds catches dropped connections without
	// probing on every request.
	DefaultCheckInterval = 30 * time.Second

	// CheckAlways makes the accessor probe the handle on every call.
	// Use it when staleness must be detected immediately, e.g. behind
	// aggressive connection-killing proxies.
	CheckAlways time.Duration = -1
)

// Spec describes one named database connection.
type Spec struct {
	// Driver selects the adapter registered under this name.
	// Empty means the registry's default driver.
	Driver string

	// DSN is the driver-specific connection string. Required.
	DSN string

	// Username and Password override credentials embedded in the DSN.
	Username string
	Password string

	// Options are passed verbatim to the underlying driver.
	Options map[string]string

	// CheckInterval controls how often the accessor re-validates the
	// handle. Zero means DefaultCheckInterval; CheckAlways probes on
	// every access.
	CheckInterval time.Duration

	// OnConnect runs against every freshly opened handle, including
	// reconnects, before the handle becomes visible to callers.
	OnConnect func(ctx context.Context, conn driver.Conn) error
}

// validate checks the spec for the named entry and resolves its driver.
// Configuration errors are fatal at registration time, before any
// connection is opened.
func (s Spec) validate(name string, drivers map[string]driver.Driver, defaultDriver string) (driver.Driver, error) {
	if s.DSN == "" {
		return nil, errors.Join(ErrEmptyDSN, fmt.Errorf("database %q", name))
	}

	driverName := s.Driver
	if driverName == "" {
		driverName = defaultDriver
	}
	drv, ok := drivers[driverName]
	if !ok {
		return nil, errors.Join(ErrUnknownDriver, fmt.Errorf("database %q: driver %q", name, driverName))
	}
	return drv, nil
}

// interval returns the effective check interval.
func (s Spec) interval() time.Duration {
	if s.CheckInterval == 0 {
		return DefaultCheckInterval
	}
	return s.CheckInterval
}

// driverSpec converts the registry-facing spec into the driver-facing one.
func (s Spec) driverSpec() driver.Spec {
	return driver.Spec{
		DSN:      s.DSN,
		Username: s.Username,
		Password: s.Password,
		Options:  s.Options,
	}
}
