// Package health implements liveness and readiness probes. Checks run on a
// shared background ticker; a check flips to unhealthy only after several
// consecutive failures so a single network blip does not take the service
// out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// failureThreshold is how many consecutive failures mark a check unhealthy.
const failureThreshold = 3

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

type kind int

const (
	liveness kind = iota
	readiness
)

// check couples a CheckFunc with its sampled state. State fields are written
// only from the probe loop and read by HTTP handlers under the registry
// mutex.
type check struct {
	name    string
	kind    kind
	timeout time.Duration
	fn      CheckFunc

	fails   int
	healthy bool
	lastErr error
}

// Health is a registry of liveness and readiness checks plus a manual ready
// flag flipped during startup and graceful shutdown.
type Health struct {
	ready  atomic.Bool
	cancel context.CancelFunc

	mu     sync.Mutex
	checks []*check
}

// New creates an empty registry. The service is not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check that decides whether the process should
// be restarted (goroutine leaks, deadlocks).
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.add(&check{name: name, kind: liveness, timeout: timeout, fn: fn, healthy: true})
}

// AddReadinessCheck registers a check that decides whether the service can
// take traffic (database connectivity, dependency availability).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.add(&check{name: name, kind: readiness, timeout: timeout, fn: fn, healthy: true})
}

func (h *Health) add(c *check) {
	h.mu.Lock()
	h.checks = append(h.checks, c)
	h.mu.Unlock()
}

// Start runs every registered check once immediately and then on each tick
// until Stop is called or ctx is cancelled. Register all checks before
// calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, h.cancel = context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		h.runAll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.runAll(ctx)
			}
		}
	}()
}

func (h *Health) runAll(ctx context.Context) {
	h.mu.Lock()
	checks := make([]*check, len(h.checks))
	copy(checks, h.checks)
	h.mu.Unlock()

	for _, c := range checks {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.fn(cctx)
		cancel()

		h.mu.Lock()
		c.lastErr = err
		if err != nil {
			c.fails++
			if c.fails >= failureThreshold {
				c.healthy = false
			}
		} else {
			c.fails = 0
			c.healthy = true
		}
		h.mu.Unlock()
	}
}

// Stop cancels the probe loop. Safe to call more than once.
func (h *Health) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
}

// SetReady flips the manual readiness flag: true once initialization is
// complete, false at the start of graceful shutdown to drain traffic.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service has been marked ready and every
// readiness check is passing.
func (h *Health) IsReady() bool {
	return h.ready.Load() && len(h.failures(readiness)) == 0
}

func (h *Health) failures(k kind) map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]string)
	for _, c := range h.checks {
		if c.kind != k || c.healthy {
			continue
		}
		if c.lastErr != nil {
			out[c.name] = c.lastErr.Error()
		} else {
			out[c.name] = "check is unhealthy"
		}
	}
	return out
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while all liveness checks pass, else 503
// with the failing checks listed.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.failures(liveness))
}

// ReadyEndpoint serves /readyz: 200 only when the service is marked ready
// and all readiness checks pass.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := h.failures(readiness)
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp = statusResponse{Status: "unhealthy", Checks: failures}
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
