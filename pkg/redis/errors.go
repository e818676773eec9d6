package redis

import "errors"

var (
	ErrFailedToParseURL = errors.New("redis: failed to parse connection URL")
	ErrConnectionFailed = errors.New("redis: connection failed")
	ErrBadOption        = errors.New("redis: bad connection option")
	ErrNotRedis         = errors.New("redis: handle was not opened by this driver")
)
