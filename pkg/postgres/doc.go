// Package postgres adapts [github.com/jackc/pgx/v5/pgxpool] connection
// pools to the dbhelper driver interface.
//
// Each Open builds a pool from the spec's DSN with retry and ping
// verification. Spec credentials override DSN-embedded ones; spec options
// are passed verbatim as server runtime parameters (e.g. search_path,
// application_name).
//
// # Usage
//
//	reg, err := dbhelper.New(ctx,
//	    dbhelper.WithDriver("postgres", postgres.New(
//	        postgres.WithMaxConns(20),
//	        postgres.WithRetry(5, 3*time.Second),
//	    )),
//	    dbhelper.WithDatabase("main", dbhelper.Spec{DSN: dsn}),
//	)
//
// Handlers unwrap the native pool from the registry handle:
//
//	conn, err := reg.Conn(ctx, "main")
//	pool, err := postgres.Pool(conn)
//	row := pool.QueryRow(ctx, "SELECT 1")
//
// The package also ships a goose-based [Migrate] and a [Healthcheck]
// closure for readiness endpoints.
package postgres
