// Package dbhelper registers database connections as named accessors for
// web applications.
//
// The registry reads a configuration block (Go values or YAML), opens each
// connection through a pluggable driver adapter, and exposes one accessor
// per exposed name. Each access lazily re-validates the handle: once the
// per-database check interval has elapsed, the handle is pinged and, if
// the ping fails, replaced by a freshly opened one. Replacement is atomic
// from the caller's point of view.
//
// # Drivers
//
//   - [github.com/benvanstaveren/dbhelper/pkg/postgres] — pgx/v5 connection pools
//   - [github.com/benvanstaveren/dbhelper/pkg/redis] — go-redis/v9 clients
//   - [github.com/benvanstaveren/dbhelper/pkg/sqldb] — database/sql for any registered driver
//
// # Usage
//
//	reg, err := dbhelper.New(ctx,
//	    dbhelper.WithDriver("postgres", postgres.New()),
//	    dbhelper.WithDriver("redis", redis.New()),
//	    dbhelper.WithConfigYAML(cfg),
//	    dbhelper.WithLogger(log),
//	)
//	if err != nil {
//	    // configuration error: do not start serving traffic
//	}
//	defer reg.Close(ctx)
//
// Handler code fetches handles by name, either directly:
//
//	conn, err := reg.Conn(r.Context(), "main")
//	pool, err := postgres.Pool(conn)
//
// or through the request context when the middlewares.DB middleware is
// installed:
//
//	conn, err := dbhelper.ConnFromContext(r.Context(), "main")
//
// # Failure semantics
//
// Configuration errors (empty DSN, unknown driver, duplicate names) are
// fatal at registration time, before any accessor exists. Connectivity
// errors surface from the accessor at the moment the handle is needed;
// a failed liveness probe triggers exactly one reconnect per check cycle,
// with no retry backoff or circuit breaking on top.
package dbhelper
