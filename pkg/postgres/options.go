package postgres

import "time"

// Option configures the driver's connection pools.
type Option func(*options)

type options struct {
	maxConns          int32
	minConns          int32
	maxConnIdleTime   time.Duration
	maxConnLifetime   time.Duration
	healthCheckPeriod time.Duration
	retryAttempts     int
	retryInterval     time.Duration
}

func defaultOptions() *options {
	return &options{
		maxConns:          10,
		minConns:          5,
		maxConnIdleTime:   10 * time.Minute,
		maxConnLifetime:   30 * time.Minute,
		healthCheckPeriod: time.Minute,
		retryAttempts:     3,
		retryInterval:     5 * time.Second,
	}
}

// WithMaxConns sets the maximum number of connections per pool.
// Default: 10
func WithMaxConns(n int32) Option {
	return func(o *options) {
		o.maxConns = n
	}
}

// WithMinConns sets the minimum number of idle connections kept open.
// Default: 5
func WithMinConns(n int32) Option {
	return func(o *options) {
		o.minConns = n
	}
}

// WithMaxConnIdleTime sets how long a pooled connection may sit idle.
// Default: 10 minutes
func WithMaxConnIdleTime(d time.Duration) Option {
	return func(o *options) {
		o.maxConnIdleTime = d
	}
}

// WithMaxConnLifetime sets the total lifetime of a pooled connection.
// Default: 30 minutes
func WithMaxConnLifetime(d time.Duration) Option {
	return func(o *options) {
		o.maxConnLifetime = d
	}
}

// WithHealthCheckPeriod sets the pool's own background check frequency.
// Default: 1 minute
func WithHealthCheckPeriod(d time.Duration) Option {
	return func(o *options) {
		o.healthCheckPeriod = d
	}
}

// WithRetry configures open retry behavior.
// Default: 3 attempts, 5 second base interval with exponential backoff.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}
