package postgres

import "errors"

var (
	ErrFailedToParseDSN  = errors.New("postgres: failed to parse connection string")
	ErrFailedToOpen      = errors.New("postgres: failed to open connection pool")
	ErrNotPostgres       = errors.New("postgres: handle was not opened by this driver")
	ErrHealthcheckFailed = errors.New("postgres: healthcheck failed")
	ErrSetDialect        = errors.New("postgres migrator: failed to set dialect")
	ErrApplyMigrations   = errors.New("postgres migrator: failed to apply migrations")
)
