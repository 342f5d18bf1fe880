// Package health exposes liveness and readiness endpoints. Liveness only
// proves the process is serving; readiness probes every registered
// dependency. A failing critical dependency takes readiness down (503); a
// failing non-critical one degrades it but keeps the endpoint at 200.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// checkTimeout bounds a single readiness evaluation across all dependencies.
const checkTimeout = 5 * time.Second

// Checker probes one dependency. A nil return means healthy.
type Checker func(ctx context.Context) error

// Status is the reported state of the service or one of its dependencies.
type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// CheckResult reports one dependency probe, including how long it took.
type CheckResult struct {
	Status   Status `json:"status"`
	Critical bool   `json:"critical"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// Response is the body of both health endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

type registration struct {
	name     string
	check    Checker
	critical bool
}

// Handler aggregates named dependency checkers behind the two endpoints.
type Handler struct {
	mu       sync.RWMutex
	checkers []registration
}

func NewHandler() *Handler {
	return &Handler{}
}

// Register adds a critical dependency to the readiness probe. Registering
// the same name again replaces the previous checker.
func (h *Handler) Register(name string, c Checker) {
	h.register(name, c, true)
}

// RegisterCritical is an explicit alias of Register.
func (h *Handler) RegisterCritical(name string, c Checker) {
	h.register(name, c, true)
}

// RegisterNonCritical adds a dependency whose failure degrades readiness
// without failing it. Caches and brokers with graceful fallbacks belong here.
func (h *Handler) RegisterNonCritical(name string, c Checker) {
	h.register(name, c, false)
}

func (h *Handler) register(name string, c Checker, critical bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.checkers {
		if h.checkers[i].name == name {
			h.checkers[i] = registration{name: name, check: c, critical: critical}
			return
		}
	}
	h.checkers = append(h.checkers, registration{name: name, check: c, critical: critical})
}

// LivenessHandler reports up whenever the process can serve the request.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, Response{
			Status:    StatusUp,
			Timestamp: time.Now().UTC(),
		})
	}
}

// ReadinessHandler probes all registered dependencies concurrently.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		h.mu.RLock()
		regs := make([]registration, len(h.checkers))
		copy(regs, h.checkers)
		h.mu.RUnlock()

		results := make([]CheckResult, len(regs))
		var wg sync.WaitGroup
		for i, reg := range regs {
			wg.Add(1)
			go func(i int, reg registration) {
				defer wg.Done()
				start := time.Now()
				res := CheckResult{Status: StatusUp, Critical: reg.critical}
				if err := reg.check(ctx); err != nil {
					res.Status = StatusDown
					res.Error = err.Error()
				}
				res.Duration = time.Since(start).Round(time.Millisecond).String()
				results[i] = res
			}(i, reg)
		}
		wg.Wait()

		overall := StatusUp
		checks := make(map[string]CheckResult, len(results))
		for i, reg := range regs {
			checks[reg.name] = results[i]
			if results[i].Status != StatusDown {
				continue
			}
			if reg.critical {
				overall = StatusDown
			} else if overall == StatusUp {
				overall = StatusDegraded
			}
		}

		code := http.StatusOK
		if overall == StatusDown {
			code = http.StatusServiceUnavailable
		}
		writeResponse(w, code, Response{
			Status:    overall,
			Timestamp: time.Now().UTC(),
			Checks:    checks,
		})
	}
}

func writeResponse(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
