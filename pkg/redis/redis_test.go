package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/benvanstaveren/dbhelper/pkg/driver"
)

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	drv := New()

	t.Run("empty DSN returns ErrFailedToParseURL", func(t *testing.T) {
		t.Parallel()

		conn, err := drv.Open(ctx, driver.Spec{})
		require.Error(t, err)
		require.Nil(t, conn)
		require.ErrorIs(t, err, ErrFailedToParseURL)
	})

	t.Run("invalid scheme returns ErrFailedToParseURL", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name string
			dsn  string
		}{
			{
				name: "http scheme",
				dsn:  "http://localhost:6379",
			},
			{
				name: "no scheme",
				dsn:  "localhost:6379",
			},
			{
				name: "postgres scheme",
				dsn:  "postgres://localhost:6379",
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				conn, err := drv.Open(ctx, driver.Spec{DSN: tc.dsn})
				require.Error(t, err)
				require.Nil(t, conn)
				require.ErrorIs(t, err, ErrFailedToParseURL)
			})
		}
	})

	t.Run("malformed URL returns ErrFailedToParseURL", func(t *testing.T) {
		t.Parallel()

		conn, err := drv.Open(ctx, driver.Spec{DSN: "redis://user:pass:extra@localhost:6379/not-a-db"})
		require.Error(t, err)
		require.Nil(t, conn)
		require.ErrorIs(t, err, ErrFailedToParseURL)
	})

	t.Run("bad options are rejected before dialing", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name    string
			options map[string]string
		}{
			{
				name:    "unknown key",
				options: map[string]string{"bogus": "1"},
			},
			{
				name:    "non-integer db",
				options: map[string]string{"db": "two"},
			},
			{
				name:    "non-duration read timeout",
				options: map[string]string{"read_timeout": "fast"},
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				conn, err := drv.Open(ctx, driver.Spec{
					DSN:     "redis://localhost:6379/0",
					Options: tc.options,
				})
				require.Error(t, err)
				require.Nil(t, conn)
				require.ErrorIs(t, err, ErrBadOption)
			})
		}
	})
}

func TestApplyOption(t *testing.T) {
	t.Parallel()

	t.Run("known keys override client settings", func(t *testing.T) {
		t.Parallel()

		o, err := redis.ParseURL("redis://localhost:6379/0")
		require.NoError(t, err)

		require.NoError(t, applyOption(o, "db", "3"))
		require.NoError(t, applyOption(o, "pool_size", "42"))
		require.NoError(t, applyOption(o, "min_idle_conns", "7"))
		require.NoError(t, applyOption(o, "read_timeout", "2s"))
		require.NoError(t, applyOption(o, "write_timeout", "3s"))
		require.NoError(t, applyOption(o, "dial_timeout", "4s"))

		require.Equal(t, 3, o.DB)
		require.Equal(t, 42, o.PoolSize)
		require.Equal(t, 7, o.MinIdleConns)
		require.Equal(t, 2*time.Second, o.ReadTimeout)
		require.Equal(t, 3*time.Second, o.WriteTimeout)
		require.Equal(t, 4*time.Second, o.DialTimeout)
	})
}

func TestClient_Unwrap(t *testing.T) {
	t.Parallel()

	client, err := Client(otherConn{})
	require.Nil(t, client)
	require.ErrorIs(t, err, ErrNotRedis)
}

type otherConn struct{}

func (otherConn) ID() string                  { return "other" }
func (otherConn) Ping(context.Context) error  { return nil }
func (otherConn) Close(context.Context) error { return nil }
