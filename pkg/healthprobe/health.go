package healthprobe

import (
	"net/http"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// HealthChecker answers the liveness and readiness probes served next to
// the metrics endpoint. Liveness is unconditional; readiness flips once
// the feed, books, and executor are wired up and again when shutdown
// starts.
type HealthChecker struct {
	startedAt time.Time
	ready     atomic.Bool
}

// New creates a health checker that reports not ready.
func New() *HealthChecker {
	return &HealthChecker{startedAt: time.Now()}
}

// SetReady flips the readiness state.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// ProbeResponse is the JSON body of both probe endpoints.
type ProbeResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Health handles liveness checks. A process that can serve the request is
// alive, so this always answers 200.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		h.write(w, http.StatusOK, ProbeResponse{Status: "healthy", Uptime: h.uptime()})
	}
}

// Ready handles readiness checks: 200 once the bot is serving, 503 while
// it is starting or draining.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !h.ready.Load() {
			h.write(w, http.StatusServiceUnavailable, ProbeResponse{
				Status: "not_ready",
				Reason: "bot components not serving",
			})
			return
		}
		h.write(w, http.StatusOK, ProbeResponse{Status: "ready", Uptime: h.uptime()})
	}
}

func (h *HealthChecker) uptime() string {
	return time.Since(h.startedAt).String()
}

func (h *HealthChecker) write(w http.ResponseWriter, code int, resp ProbeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
