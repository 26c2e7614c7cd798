// Package health serves the liveness, readiness and status probes of the
// registry server.
package health

import (
	"context"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"arefa/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CheckTimeout bounds each readiness check.
const CheckTimeout = 2 * time.Second

// CheckFunc reports nil when the dependency is healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	fn       CheckFunc
	optional bool
}

// Handler tracks dependency checks and the backend chosen for each concern.
type Handler struct {
	started     time.Time
	environment string

	mu       sync.RWMutex
	checks   map[string]check
	backends map[string]string
}

func New(environment string) *Handler {
	return &Handler{
		started:     time.Now(),
		environment: environment,
		checks:      make(map[string]check),
		backends:    make(map[string]string),
	}
}

// RegisterCheck adds a dependency the server cannot work without, such as
// the record database. A failing check makes the server not ready.
func (h *Handler) RegisterCheck(name string, fn CheckFunc) {
	h.add(name, check{fn: fn})
}

// RegisterOptionalCheck adds a dependency whose loss only degrades the
// server, such as the document cache. A failing check is reported but
// readiness stays 200.
func (h *Handler) RegisterOptionalCheck(name string, fn CheckFunc) {
	h.add(name, check{fn: fn, optional: true})
}

func (h *Handler) add(name string, c check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = c
}

// SetBackend records which implementation serves a concern, e.g.
// "records" -> "sqlite" or "assets" -> "oss".
func (h *Handler) SetBackend(concern, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.backends[concern] = name
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

// ReadinessResponse.Status is "ready", "degraded" (an optional check
// failed) or "not_ready".
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleReadiness runs all checks concurrently, each under CheckTimeout.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := maps.Clone(h.checks)
	h.mu.RUnlock()

	var (
		mu       sync.Mutex
		results  = make(map[string]string, len(checks))
		failed   bool
		degraded bool
	)
	var g errgroup.Group
	for name, c := range checks {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(r.Context(), CheckTimeout)
			defer cancel()
			err := c.fn(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				results[name] = "up"
				return nil
			}
			results[name] = "down: " + err.Error()
			if c.optional {
				degraded = true
			} else {
				failed = true
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := ReadinessResponse{Status: "ready", Checks: results}
	switch {
	case failed:
		resp.Status = "not_ready"
		httputil.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	case degraded:
		resp.Status = "degraded"
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type StatusResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	Environment   string            `json:"environment"`
	Backends      map[string]string `json:"backends,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Timestamp     string            `json:"timestamp"`
}

// HandleStatus reports version, uptime and the configured backends.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	backends := maps.Clone(h.backends)
	h.mu.RUnlock()

	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		Backends:      backends,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}
