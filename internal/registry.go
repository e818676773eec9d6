package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/benvanstaveren/dbhelper/pkg/driver"
)

// openConcurrency bounds how many initial connections are dialed at once.
const openConcurrency = 4

// CheckFunc is the health check signature exposed per database.
type CheckFunc func(ctx context.Context) error

// Registry holds one connection slot per exposed name and hands out
// accessors that lazily re-validate the handle. Immutable after New
// apart from the slots' own handle state.
type Registry struct {
	slots  map[string]*slot
	log    *slog.Logger
	names  []string
	mu     sync.RWMutex
	closed bool
}

// New validates every configured spec, opens the initial connections,
// and installs one slot per exposed name.
//
// Configuration errors (empty DSN, unknown driver, duplicate or missing
// entries) are fatal and reported before any connection is opened, all
// of them joined into the returned error. A connection that fails to
// open is logged and left to retry lazily: the error surfaces from the
// accessor at the moment the handle is actually needed, and one broken
// database never blocks the others from registering.
func New(ctx context.Context, opts ...Option) (*Registry, error) {
	s := newSettings(opts...)

	specs := slices.Clone(s.specs)
	for _, data := range s.configs {
		parsed, err := parseConfig(data)
		if err != nil {
			return nil, err
		}
		specs = append(specs, parsed...)
	}
	if len(specs) == 0 {
		return nil, ErrNoDatabases
	}

	// Fail fast on every configuration error at once.
	var cfgErrs []error
	seen := make(map[string]bool, len(specs))
	resolved := make(map[string]driver.Driver, len(specs))
	for _, ns := range specs {
		if seen[ns.name] {
			cfgErrs = append(cfgErrs, errors.Join(ErrDuplicateDatabase, fmt.Errorf("database %q", ns.name)))
			continue
		}
		seen[ns.name] = true

		drv, err := ns.spec.validate(ns.name, s.drivers, s.defaultDriver)
		if err != nil {
			cfgErrs = append(cfgErrs, err)
			continue
		}
		resolved[ns.name] = drv
	}
	if len(cfgErrs) > 0 {
		return nil, errors.Join(cfgErrs...)
	}

	r := &Registry{
		slots: make(map[string]*slot, len(specs)),
		log:   s.log,
		names: make([]string, 0, len(specs)),
	}
	for _, ns := range specs {
		r.slots[ns.name] = newSlot(ns.name, ns.spec.interval(), newConnector(ns.spec, resolved[ns.name]), s.log)
		r.names = append(r.names, ns.name)
	}

	var g errgroup.Group
	g.SetLimit(openConcurrency)
	for name, sl := range r.slots {
		g.Go(func() error {
			if err := sl.open(ctx); err != nil {
				s.log.WarnContext(ctx, "initial database connection failed, will retry on first use",
					slog.String("database", name),
					slog.String("error", err.Error()),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	return r, nil
}

// newConnector builds the closure that opens a fresh handle for one
// spec, running the OnConnect callback before the handle escapes.
func newConnector(spec Spec, drv driver.Driver) connector {
	ds := spec.driverSpec()
	return func(ctx context.Context) (driver.Conn, error) {
		conn, err := drv.Open(ctx, ds)
		if err != nil {
			return nil, err
		}
		if spec.OnConnect != nil {
			if err := spec.OnConnect(ctx, conn); err != nil {
				_ = conn.Close(ctx)
				return nil, err
			}
		}
		return conn, nil
	}
}

// Conn returns the current handle for the named database, re-validating
// it first when the spec's check interval has elapsed.
func (r *Registry) Conn(ctx context.Context, name string) (driver.Conn, error) {
	sl, err := r.slot(name)
	if err != nil {
		return nil, err
	}
	return sl.Conn(ctx)
}

// Helper returns the named accessor closure handed to handler code.
// An unknown name is reported when the closure is called, mirroring
// Conn's behavior.
func (r *Registry) Helper(name string) func(ctx context.Context) (driver.Conn, error) {
	return func(ctx context.Context) (driver.Conn, error) {
		return r.Conn(ctx, name)
	}
}

// Names returns the exposed names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Healthcheck returns a probe for one database, compatible with the
// func(context.Context) error shape health endpoints expect.
func (r *Registry) Healthcheck(name string) CheckFunc {
	return func(ctx context.Context) error {
		conn, err := r.Conn(ctx, name)
		if err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		if err := conn.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Healthchecks returns one probe per registered database.
func (r *Registry) Healthchecks() map[string]CheckFunc {
	checks := make(map[string]CheckFunc, len(r.slots))
	for name := range r.slots {
		checks[name] = r.Healthcheck(name)
	}
	return checks
}

// Close releases every handle. Subsequent accessor calls return ErrClosed.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	var errs []error
	for _, name := range r.names {
		if err := r.slots[name].Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) slot(name string) (*slot, error) {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	sl, ok := r.slots[name]
	if !ok {
		return nil, errors.Join(ErrUnknownDatabase, fmt.Errorf("database %q", name))
	}
	return sl, nil
}
