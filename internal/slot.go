package internal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/benvanstaveren/dbhelper/pkg/driver"
)

// connector opens a fresh handle for one database, running the spec's
// OnConnect callback before the handle is returned.
type connector func(ctx context.Context) (driver.Conn, error)

// slot owns the current handle for one exposed name. The mutex makes
// handle replacement atomic from the caller's point of view: request
// goroutines either see the old handle or the fully swapped new one,
// never a half-updated slot.
type slot struct {
	connect     connector
	conn        driver.Conn
	log         *slog.Logger
	name        string
	interval    time.Duration
	lastChecked time.Time
	mu          sync.Mutex
	closed      bool
}

func newSlot(name string, interval time.Duration, connect connector, log *slog.Logger) *slot {
	return &slot{
		connect:  connect,
		log:      log,
		name:     name,
		interval: interval,
	}
}

// open establishes the slot's initial handle. Failure leaves the slot
// installed; the next Conn call retries and surfaces the error to the
// caller that actually needs the handle.
func (s *slot) open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.connect(ctx)
	if err != nil {
		return errors.Join(ErrOpenFailed, err)
	}
	s.conn = conn
	s.lastChecked = time.Now()
	return nil
}

// Conn returns the slot's current handle, lazily re-validating it when
// the check interval has elapsed. A failed liveness probe triggers
// exactly one reconnect per check cycle; if the reconnect fails too,
// the error goes to the caller and the next elapsed cycle tries again.
func (s *slot) Conn(ctx context.Context) (driver.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	if s.conn == nil {
		// Initial open failed at registration time; retry here so the
		// connectivity error surfaces at the moment the handle is needed.
		conn, err := s.connect(ctx)
		if err != nil {
			return nil, errors.Join(ErrOpenFailed, err)
		}
		s.conn = conn
		s.lastChecked = time.Now()
		return s.conn, nil
	}

	if !s.stale() {
		return s.conn, nil
	}

	s.lastChecked = time.Now()
	if err := s.conn.Ping(ctx); err == nil {
		return s.conn, nil
	}

	stale := s.conn
	s.log.WarnContext(ctx, "database connection went stale, reconnecting",
		slog.String("database", s.name),
		slog.String("conn_id", stale.ID()),
	)

	conn, err := s.connect(ctx)
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	_ = stale.Close(ctx)
	s.conn = conn

	s.log.InfoContext(ctx, "database connection replaced",
		slog.String("database", s.name),
		slog.String("old_conn_id", stale.ID()),
		slog.String("conn_id", conn.ID()),
	)
	return s.conn, nil
}

// stale reports whether the check interval has elapsed since the last
// probe. CheckAlways probes on every access.
func (s *slot) stale() bool {
	if s.interval == CheckAlways {
		return true
	}
	return time.Since(s.lastChecked) > s.interval
}

// Close releases the slot's handle. Subsequent Conn calls return ErrClosed.
func (s *slot) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.conn == nil {
		return nil
	}
	conn := s.conn
	s.conn = nil
	return conn.Close(ctx)
}
