package internal

import (
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/benvanstaveren/dbhelper/pkg/driver"
)

// settings collects everything the registry needs before any connection
// is opened. Built from options, immutable afterwards.
type settings struct {
	drivers       map[string]driver.Driver
	log           *slog.Logger
	defaultDriver string
	specs         []namedSpec
	configs       [][]byte
}

// namedSpec keeps registration order, which map-based config cannot.
type namedSpec struct {
	name string
	spec Spec
}

// Option configures the registry.
type Option func(*settings)

func newSettings(opts ...Option) *settings {
	s := &settings{
		drivers: make(map[string]driver.Driver),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithDriver registers a driver under the given name. The first driver
// registered becomes the default unless WithDefaultDriver overrides it.
func WithDriver(name string, drv driver.Driver) Option {
	return func(s *settings) {
		if s.defaultDriver == "" {
			s.defaultDriver = name
		}
		s.drivers[name] = drv
	}
}

// WithDefaultDriver sets the driver used by specs that don't name one.
func WithDefaultDriver(name string) Option {
	return func(s *settings) {
		s.defaultDriver = name
	}
}

// WithDatabase adds one named database spec.
func WithDatabase(name string, spec Spec) Option {
	return func(s *settings) {
		s.specs = append(s.specs, namedSpec{name: name, spec: spec})
	}
}

// WithDatabases adds a mapping of exposed name to spec. Entries are
// registered in sorted name order for deterministic behavior.
func WithDatabases(specs map[string]Spec) Option {
	return func(s *settings) {
		for _, name := range slices.Sorted(maps.Keys(specs)) {
			s.specs = append(s.specs, namedSpec{name: name, spec: specs[name]})
		}
	}
}

// WithConfigYAML adds a YAML configuration block. See the package
// documentation for the accepted layout.
func WithConfigYAML(data []byte) Option {
	return func(s *settings) {
		s.configs = append(s.configs, data)
	}
}

// WithLogger sets the logger for probe failures and reconnects.
// Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}
