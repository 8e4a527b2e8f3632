package handlers

import (
	"net/http"
	"time"

	"github.com/shamrozr/luxury-affairs/internal/platform/httpx"
)

// HealthHandlers serve liveness and readiness probes.
type HealthHandlers struct {
	ready   func() bool
	started time.Time
	now     func() time.Time
}

// HealthOption customises HealthHandlers.
type HealthOption func(*HealthHandlers)

// WithReadiness sets the readiness check. Without one the service is always ready.
func WithReadiness(ready func() bool) HealthOption {
	return func(h *HealthHandlers) {
		if ready != nil {
			h.ready = ready
		}
	}
}

// WithHealthClock injects a clock for uptime reporting.
func WithHealthClock(now func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHealthHandlers constructs health handlers.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		ready: func() bool { return true },
		now:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.started = h.now()
	return h
}

// Healthz reports that the process is serving.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.started).Round(time.Second).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

// Readyz reports whether the loaded site can resolve a brand.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if !h.ready() {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_ready", "no brand data loaded", http.StatusServiceUnavailable))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
