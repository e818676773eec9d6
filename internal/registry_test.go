package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/benvanstaveren/dbhelper/pkg/driver"
)

type fakeConn struct {
	mu      sync.Mutex
	id      string
	pingErr error
	pings   int
	closed  bool
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings++
	return c.pingErr
}

func (c *fakeConn) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) failPings(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pingErr = err
}

func (c *fakeConn) pingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeDriver struct {
	mu      sync.Mutex
	openErr error
	opens   int
}

func (d *fakeDriver) Open(context.Context, driver.Spec) (driver.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opens++
	return &fakeConn{id: fmt.Sprintf("conn-%d", d.opens)}, nil
}

func (d *fakeDriver) failOpens(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openErr = err
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty DSN fails before any accessor is installed", func(t *testing.T) {
		t.Parallel()

		reg, err := New(ctx,
			WithDriver("fake", &fakeDriver{}),
			WithDatabase("main", Spec{}),
		)
		require.Nil(t, reg)
		require.ErrorIs(t, err, ErrEmptyDSN)
		require.ErrorContains(t, err, `database "main"`)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()

		reg, err := New(ctx,
			WithDriver("fake", &fakeDriver{}),
			WithDatabase("main", Spec{Driver: "bogus", DSN: "fake://x"}),
		)
		require.Nil(t, reg)
		require.ErrorIs(t, err, ErrUnknownDriver)
		require.ErrorContains(t, err, `driver "bogus"`)
	})

	t.Run("no databases", func(t *testing.T) {
		t.Parallel()

		reg, err := New(ctx, WithDriver("fake", &fakeDriver{}))
		require.Nil(t, reg)
		require.ErrorIs(t, err, ErrNoDatabases)
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()

		reg, err := New(ctx,
			WithDriver("fake", &fakeDriver{}),
			WithDatabase("main", Spec{DSN: "fake://a"}),
			WithDatabase("main", Spec{DSN: "fake://b"}),
		)
		require.Nil(t, reg)
		require.ErrorIs(t, err, ErrDuplicateDatabase)
	})

	t.Run("all configuration errors reported at once", func(t *testing.T) {
		t.Parallel()

		reg, err := New(ctx,
			WithDriver("fake", &fakeDriver{}),
			WithDatabase("first", Spec{}),
			WithDatabase("second", Spec{Driver: "bogus", DSN: "fake://x"}),
		)
		require.Nil(t, reg)
		require.ErrorIs(t, err, ErrEmptyDSN)
		require.ErrorIs(t, err, ErrUnknownDriver)
	})
}

func TestNew_SingleDatabase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	drv := &fakeDriver{}

	reg, err := New(ctx,
		WithDriver("fake", drv),
		WithDatabase("main", Spec{DSN: "fake://x", CheckInterval: time.Hour}),
	)
	require.NoError(t, err)
	require.Equal(t, []string{"main"}, reg.Names())

	conn, err := reg.Conn(ctx, "main")
	require.NoError(t, err)
	require.Equal(t, "conn-1", conn.ID())

	helper := reg.Helper("main")
	got, err := helper(ctx)
	require.NoError(t, err)
	require.Equal(t, conn.ID(), got.ID())
}

func TestNew_MultipleDatabases(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	main := &fakeDriver{}
	cache := &fakeDriver{}

	reg, err := New(ctx,
		WithDriver("main", main),
		WithDriver("cache", cache),
		WithDatabases(map[string]Spec{
			"app":     {Driver: "main", DSN: "fake://app"},
			"billing": {Driver: "main", DSN: "fake://billing"},
			"session": {Driver: "cache", DSN: "fake://session"},
		}),
	)
	require.NoError(t, err)
	require.Equal(t, []string{"app", "billing", "session"}, reg.Names())

	// Each name gets its own independent slot.
	app, err := reg.Conn(ctx, "app")
	require.NoError(t, err)
	billing, err := reg.Conn(ctx, "billing")
	require.NoError(t, err)
	require.NotEqual(t, app.ID(), billing.ID())

	_, err = reg.Conn(ctx, "session")
	require.NoError(t, err)
	require.Equal(t, 2, main.opens)
	require.Equal(t, 1, cache.opens)
}

func TestNew_OpenFailureDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	good := &fakeDriver{}
	bad := &fakeDriver{}
	bad.failOpens(errors.New("connection refused"))

	reg, err := New(ctx,
		WithDriver("good", good),
		WithDriver("bad", bad),
		WithDatabase("works", Spec{Driver: "good", DSN: "fake://works"}),
		WithDatabase("broken", Spec{Driver: "bad", DSN: "fake://broken"}),
	)
	require.NoError(t, err)

	// The healthy database registered and is usable.
	_, err = reg.Conn(ctx, "works")
	require.NoError(t, err)

	// The broken one surfaces its connectivity error at access time.
	_, err = reg.Conn(ctx, "broken")
	require.ErrorIs(t, err, ErrOpenFailed)

	// Once the database is back, the accessor recovers on its own.
	bad.failOpens(nil)
	conn, err := reg.Conn(ctx, "broken")
	require.NoError(t, err)
	require.Equal(t, "conn-1", conn.ID())
}

func TestConn_IntervalNotElapsed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	drv := &fakeDriver{}

	reg, err := New(ctx,
		WithDriver("fake", drv),
		WithDatabase("main", Spec{DSN: "fake://x", CheckInterval: time.Hour}),
	)
	require.NoError(t, err)

	first, err := reg.Conn(ctx, "main")
	require.NoError(t, err)
	second, err := reg.Conn(ctx, "main")
	require.NoError(t, err)

	// Same handle, and no liveness probe was issued.
	require.Equal(t, first.ID(), second.ID())
	require.Zero(t, first.(*fakeConn).pingCount())
}

func TestConn_StaleHandleIsReplaced(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	drv := &fakeDriver{}

	reg, err := New(ctx,
		WithDriver("fake", drv),
		WithDatabase("main", Spec{DSN: "fake://x", CheckInterval: CheckAlways}),
	)
	require.NoError(t, err)

	first, err := reg.Conn(ctx, "main")
	require.NoError(t, err)

	// Force the underlying connection to go stale.
	first.(*fakeConn).failPings(errors.New("connection reset"))

	second, err := reg.Conn(ctx, "main")
	require.NoError(t, err)
	require.NotEqual(t, first.ID(), second.ID())
	require.True(t, first.(*fakeConn).isClosed())
}

func TestConn_ReplacementResetsLastChecked(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	drv := &fakeDriver{}

	reg, err := New(ctx,
		WithDriver("fake", drv),
		WithDatabase("main", Spec{DSN: "fake://x", CheckInterval: 25 * time.Millisecond}),
	)
	require.NoError(t, err)

	first, err := reg.Conn(ctx, "main")
	require.NoError(t, err)

	first.(*fakeConn).failPings(errors.New("connection reset"))
	time.Sleep(40 * time.Millisecond)

	second, err := reg.Conn(ctx, "main")
	require.NoError(t, err)
	require.NotEqual(t, first.ID(), second.ID())

	// The replacement reset the timestamp, so an immediate call returns
	// the same handle without probing it.
	third, err := reg.Conn(ctx, "main")
	require.NoError(t, err)
	require.Equal(t, second.ID(), third.ID())
	require.Zero(t, second.(*fakeConn).pingCount())
}

func TestConn_ReconnectFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	drv := &fakeDriver{}

	reg, err := New(ctx,
		WithDriver("fake", drv),
		WithDatabase("main", Spec{DSN: "fake://x", CheckInterval: CheckAlways}),
	)
	require.NoError(t, err)

	first, err := reg.Conn(ctx, "main")
	require.NoError(t, err)

	first.(*fakeConn).failPings(errors.New("connection reset"))
	drv.failOpens(errors.New("connection refused"))

	_, err = reg.Conn(ctx, "main")
	require.ErrorIs(t, err, ErrOpenFailed)

	// Reconnect succeeds once the database is reachable again.
	drv.failOpens(nil)
	conn, err := reg.Conn(ctx, "main")
	require.NoError(t, err)
	require.NotEqual(t, first.ID(), conn.ID())
}

func TestConn_UnknownDatabase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	reg, err := New(ctx,
		WithDriver("fake", &fakeDriver{}),
		WithDatabase("main", Spec{DSN: "fake://x"}),
	)
	require.NoError(t, err)

	_, err = reg.Conn(ctx, "nope")
	require.ErrorIs(t, err, ErrUnknownDatabase)

	_, err = reg.Helper("nope")(ctx)
	require.ErrorIs(t, err, ErrUnknownDatabase)
}

func TestOnConnect(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("runs on every open including reconnect", func(t *testing.T) {
		t.Parallel()

		var (
			mu   sync.Mutex
			seen []string
		)
		drv := &fakeDriver{}

		reg, err := New(ctx,
			WithDriver("fake", drv),
			WithDatabase("main", Spec{
				DSN:           "fake://x",
				CheckInterval: CheckAlways,
				OnConnect: func(_ context.Context, conn driver.Conn) error {
					mu.Lock()
					seen = append(seen, conn.ID())
					mu.Unlock()
					return nil
				},
			}),
		)
		require.NoError(t, err)

		first, err := reg.Conn(ctx, "main")
		require.NoError(t, err)
		first.(*fakeConn).failPings(errors.New("connection reset"))

		second, err := reg.Conn(ctx, "main")
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, []string{first.ID(), second.ID()}, seen)
	})

	t.Run("callback error fails the open", func(t *testing.T) {
		t.Parallel()

		cbErr := errors.New("schema missing")
		drv := &fakeDriver{}

		reg, err := New(ctx,
			WithDriver("fake", drv),
			WithDatabase("main", Spec{
				DSN: "fake://x",
				OnConnect: func(context.Context, driver.Conn) error {
					return cbErr
				},
			}),
		)
		require.NoError(t, err)

		_, err = reg.Conn(ctx, "main")
		require.ErrorIs(t, err, cbErr)
	})
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	drv := &fakeDriver{}

	reg, err := New(ctx,
		WithDriver("fake", drv),
		WithDatabases(map[string]Spec{
			"main":  {DSN: "fake://main", CheckInterval: time.Hour},
			"cache": {DSN: "fake://cache", CheckInterval: time.Hour},
		}),
	)
	require.NoError(t, err)

	checks := reg.Healthchecks()
	require.Len(t, checks, 2)
	require.NoError(t, checks["main"](ctx))
	require.NoError(t, checks["cache"](ctx))

	conn, err := reg.Conn(ctx, "main")
	require.NoError(t, err)
	conn.(*fakeConn).failPings(errors.New("connection reset"))

	err = reg.Healthcheck("main")(ctx)
	require.ErrorIs(t, err, ErrHealthcheckFailed)
}

func TestRegistry_Close(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	drv := &fakeDriver{}

	reg, err := New(ctx,
		WithDriver("fake", drv),
		WithDatabase("main", Spec{DSN: "fake://x"}),
	)
	require.NoError(t, err)

	conn, err := reg.Conn(ctx, "main")
	require.NoError(t, err)

	require.NoError(t, reg.Close(ctx))
	require.True(t, conn.(*fakeConn).isClosed())

	_, err = reg.Conn(ctx, "main")
	require.ErrorIs(t, err, ErrClosed)

	// Close is idempotent.
	require.NoError(t, reg.Close(ctx))
}
