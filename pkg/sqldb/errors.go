package sqldb

import "errors"

var (
	ErrFailedToOpen            = errors.New("sqldb: failed to open database handle")
	ErrBadOption               = errors.New("sqldb: bad connection option")
	ErrCredentialsNotSupported = errors.New("sqldb: embed credentials in the dsn instead of the spec")
	ErrNotSQL                  = errors.New("sqldb: handle was not opened by this driver")
)
