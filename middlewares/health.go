package middlewares

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/benvanstaveren/dbhelper"
)

const (
	defaultHealthTimeout = 5 * time.Second

	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// healthResponse is the JSON body written by the readiness handler.
type healthResponse struct {
	Checks map[string]healthCheck `json:"checks,omitempty"`
	Status string                 `json:"status"`
}

type healthCheck struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthOption configures the readiness handler.
type HealthOption func(*healthConfig)

type healthConfig struct {
	log     *slog.Logger
	timeout time.Duration
}

// WithHealthTimeout sets the deadline for probing all databases.
// Default: 5 seconds
func WithHealthTimeout(d time.Duration) HealthOption {
	return func(c *healthConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHealthLogger sets the logger for failed probes.
func WithHealthLogger(l *slog.Logger) HealthOption {
	return func(c *healthConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// Liveness returns a handler that always responds OK while the process
// is running.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if wantsJSON(r) {
			writeHealthJSON(w, http.StatusOK, &healthResponse{Status: statusHealthy})
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// Readiness returns a handler that probes every registered database in
// parallel and responds 503 when any probe fails. Probing goes through
// the registry accessor, so a stale handle is reconnected on the way.
func Readiness(reg *dbhelper.Registry, opts ...HealthOption) http.HandlerFunc {
	cfg := &healthConfig{
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout: defaultHealthTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resp := probe(r.Context(), reg, cfg)

		status := http.StatusOK
		if resp.Status == statusUnhealthy {
			status = http.StatusServiceUnavailable
		}

		if wantsJSON(r) {
			writeHealthJSON(w, status, resp)
			return
		}

		w.WriteHeader(status)
		if resp.Status == statusHealthy {
			_, _ = w.Write([]byte("OK"))
		} else {
			_, _ = w.Write([]byte("Service Unavailable"))
		}
	}
}

// Mount registers the liveness and readiness endpoints on a chi router
// under /health/live and /health/ready.
func Mount(r chi.Router, reg *dbhelper.Registry, opts ...HealthOption) {
	r.Get("/health/live", Liveness())
	r.Get("/health/ready", Readiness(reg, opts...))
}

// probe runs every database check in parallel under one deadline.
func probe(ctx context.Context, reg *dbhelper.Registry, cfg *healthConfig) *healthResponse {
	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]healthCheck)
		healthy = true
	)

	g, ctx := errgroup.WithContext(ctx)
	for name, check := range reg.Healthchecks() {
		g.Go(func() error {
			result := healthCheck{Status: statusHealthy}
			if err := check(ctx); err != nil {
				result.Status = statusUnhealthy
				result.Error = err.Error()
				cfg.log.WarnContext(ctx, "database readiness check failed",
					slog.String("database", name),
					slog.String("error", err.Error()),
				)
			}

			mu.Lock()
			results[name] = result
			healthy = healthy && result.Status == statusHealthy
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := statusHealthy
	if !healthy {
		status = statusUnhealthy
	}
	return &healthResponse{Status: status, Checks: results}
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeHealthJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
