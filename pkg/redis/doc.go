// Package redis adapts [github.com/redis/go-redis/v9] clients to the
// dbhelper driver interface.
//
// Redis is registered like any other database: key-value stores used as
// caches or session backends benefit from the same named-accessor and
// lazy-revalidation treatment as relational databases.
//
//	reg, err := dbhelper.New(ctx,
//	    dbhelper.WithDriver("redis", redis.New(redis.WithPoolSize(20))),
//	    dbhelper.WithDatabase("cache", dbhelper.Spec{
//	        DSN: "redis://localhost:6379/0",
//	        Options: map[string]string{"read_timeout": "2s"},
//	    }),
//	)
//
//	conn, err := reg.Conn(ctx, "cache")
//	client, err := redis.Client(conn)
package redis
