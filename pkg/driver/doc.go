// Package driver defines the interfaces between the dbhelper registry and
// database client adapters.
//
// An adapter implements [Driver] to open handles and wraps its native
// client in a [Conn]. The registry never touches the native client type;
// handler code unwraps it through the adapter package (e.g. postgres.Pool,
// redis.Client, sqldb.DB).
package driver
