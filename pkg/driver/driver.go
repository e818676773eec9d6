package driver

import "context"

// Spec carries the connection parameters handed to a Driver when opening
// a new handle. Drivers treat Options as opaque key-value pairs and apply
// them in a driver-specific way.
type Spec struct {
	// DSN is the driver-specific connection string. Never empty; the
	// registry validates it before any driver sees the spec.
	DSN string

	// Username and Password override credentials embedded in the DSN
	// when set. Drivers that cannot apply them separately reject them.
	Username string
	Password string

	// Options are passed verbatim to the underlying client library.
	Options map[string]string
}

// Conn is an open database handle managed by the registry.
// Every open assigns a fresh ID so handle replacement after a failed
// liveness probe is observable in logs and tests.
type Conn interface {
	// ID returns the unique identifier of this handle.
	ID() string

	// Ping verifies the connection is still usable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Driver opens connections for one database kind.
type Driver interface {
	Open(ctx context.Context, spec Spec) (Conn, error)
}
