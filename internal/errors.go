package internal

import "errors"

var (
	ErrEmptyDSN          = errors.New("dbhelper: database spec has empty dsn")
	ErrUnknownDriver     = errors.New("dbhelper: unknown driver")
	ErrUnknownDatabase   = errors.New("dbhelper: unknown database")
	ErrNoDatabases       = errors.New("dbhelper: no databases configured")
	ErrDuplicateDatabase = errors.New("dbhelper: database already registered")
	ErrClosed            = errors.New("dbhelper: registry is closed")
	ErrOpenFailed        = errors.New("dbhelper: failed to open database connection")
	ErrParseConfig       = errors.New("dbhelper: failed to parse database configuration")
	ErrHealthcheckFailed = errors.New("dbhelper: healthcheck failed")
)
