package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/benvanstaveren/dbhelper/pkg/driver"
)

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("malformed DSN returns ErrFailedToParseDSN", func(t *testing.T) {
		t.Parallel()

		drv := New()
		conn, err := drv.Open(ctx, driver.Spec{DSN: "postgres://invalid:port:what"})
		require.Error(t, err)
		require.Nil(t, conn)
		require.ErrorIs(t, err, ErrFailedToParseDSN)
	})

	t.Run("unreachable server returns ErrFailedToOpen", func(t *testing.T) {
		t.Parallel()

		drv := New(WithRetry(1, time.Millisecond))
		conn, err := drv.Open(ctx, driver.Spec{DSN: "postgres://localhost:1/nope?connect_timeout=1"})
		require.Error(t, err)
		require.Nil(t, conn)
		require.ErrorIs(t, err, ErrFailedToOpen)
	})

	t.Run("canceled context aborts retries", func(t *testing.T) {
		t.Parallel()

		canceled, cancel := context.WithCancel(context.Background())
		cancel()

		drv := New(WithRetry(3, time.Second))
		conn, err := drv.Open(canceled, driver.Spec{DSN: "postgres://localhost:1/nope?connect_timeout=1"})
		require.Error(t, err)
		require.Nil(t, conn)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestPool_Unwrap(t *testing.T) {
	t.Parallel()

	pool, err := Pool(otherConn{})
	require.Nil(t, pool)
	require.ErrorIs(t, err, ErrNotPostgres)
}

func TestHealthcheck_NilPool(t *testing.T) {
	t.Parallel()

	err := Healthcheck(nil)(context.Background())
	require.ErrorIs(t, err, ErrHealthcheckFailed)
}

type otherConn struct{}

func (otherConn) ID() string                  { return "other" }
func (otherConn) Ping(context.Context) error  { return nil }
func (otherConn) Close(context.Context) error { return nil }
