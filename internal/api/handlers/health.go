package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthCheck represents the health status of the server
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

// VersionProber is anything that can answer "are you reachable" with a
// version string; satisfied by the REDCap client.
type VersionProber interface {
	Version(ctx context.Context) (string, error)
}

// Pinger reports cache reachability; satisfied by the record cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker probes the service's two upstream dependencies.
type HealthChecker struct {
	redcap  VersionProber
	cache   Pinger
	version string
}

func NewHealthChecker(redcap VersionProber, cache Pinger, version string) *HealthChecker {
	return &HealthChecker{redcap: redcap, cache: cache, version: version}
}

// Health returns the comprehensive health check handler. REDCap being down
// makes the service unhealthy (it cannot do its one job); a cache failure
// only degrades it, since every lookup falls through to REDCap anyway.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var mu sync.Mutex
		checks := make(map[string]CheckResult)
		record := func(name string, result CheckResult) {
			mu.Lock()
			checks[name] = result
			mu.Unlock()
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			record("redcap", h.checkREDCap(gctx))
			return nil
		})
		g.Go(func() error {
			record("cache", h.checkCache(gctx))
			return nil
		})
		_ = g.Wait()

		overallStatus := "healthy"
		statusCode := http.StatusOK
		if checks["redcap"].Status == "fail" {
			overallStatus = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		} else if checks["cache"].Status != "pass" {
			overallStatus = "degraded"
		}

		response := HealthCheck{
			Status:    overallStatus,
			Version:   h.version,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func (h *HealthChecker) checkREDCap(ctx context.Context) CheckResult {
	if h.redcap == nil {
		return CheckResult{Status: "fail", Message: "REDCap client not initialized"}
	}

	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := h.redcap.Version(probeCtx); err != nil {
		return CheckResult{
			Status:    "fail",
			Message:   "REDCap API unreachable: " + err.Error(),
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}
	return CheckResult{Status: "pass", LatencyMs: time.Since(start).Milliseconds()}
}

func (h *HealthChecker) checkCache(ctx context.Context) CheckResult {
	if h.cache == nil {
		return CheckResult{Status: "warn", Message: "cache not configured"}
	}

	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.cache.Ping(probeCtx); err != nil {
		return CheckResult{
			Status:    "warn",
			Message:   "cache unreachable, lookups fall through to REDCap: " + err.Error(),
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}
	return CheckResult{Status: "pass", LatencyMs: time.Since(start).Milliseconds()}
}

// Healthz is the liveness probe: the process is up and serving.
func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// Readyz is the readiness probe.
func Readyz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}
