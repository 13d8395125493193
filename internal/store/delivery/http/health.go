package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/tair/hiking-store/pkg/logger"
)

// Pinger is a dependency that can report its reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// DependencyHealth represents the health status of one backend
type DependencyHealth struct {
	Name     string `json:"name"`
	Status   string `json:"status"` // healthy, unhealthy
	Required bool   `json:"required"`
	Latency  int64  `json:"latency_ms"`
	Error    string `json:"error,omitempty"`
}

// ServiceHealth represents the overall service health
type ServiceHealth struct {
	Service      string                      `json:"service"`
	Status       string                      `json:"status"` // healthy, degraded, unhealthy
	Dependencies map[string]DependencyHealth `json:"dependencies"`
	Uptime       int64                       `json:"uptime_seconds"`
}

type dependency struct {
	name     string
	pinger   Pinger
	required bool
}

// HealthChecker checks the store backends. A required dependency being down
// makes the service unhealthy; an optional one only degrades it.
type HealthChecker struct {
	service   string
	deps      []dependency
	timeout   time.Duration
	startTime time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(service string) *HealthChecker {
	return &HealthChecker{
		service:   service,
		timeout:   3 * time.Second,
		startTime: time.Now(),
	}
}

// Register adds a dependency to check
func (h *HealthChecker) Register(name string, p Pinger, required bool) *HealthChecker {
	h.deps = append(h.deps, dependency{name: name, pinger: p, required: required})
	return h
}

// Check pings every dependency concurrently
func (h *HealthChecker) Check(ctx context.Context) ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make(map[string]DependencyHealth, len(h.deps))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, dep := range h.deps {
		wg.Add(1)
		go func(d dependency) {
			defer wg.Done()

			start := time.Now()
			result := DependencyHealth{Name: d.name, Status: "healthy", Required: d.required}
			if err := d.pinger.Ping(ctx); err != nil {
				result.Status = "unhealthy"
				result.Error = err.Error()
				logger.Warn(ctx).Err(err).Str("dependency", d.name).Msg("Dependency health check failed")
			}
			result.Latency = time.Since(start).Milliseconds()

			mu.Lock()
			results[d.name] = result
			mu.Unlock()
		}(dep)
	}
	wg.Wait()

	status := "healthy"
	for _, r := range results {
		if r.Status == "healthy" {
			continue
		}
		if r.Required {
			status = "unhealthy"
			break
		}
		status = "degraded"
	}

	return ServiceHealth{
		Service:      h.service,
		Status:       status,
		Dependencies: results,
		Uptime:       int64(time.Since(h.startTime).Seconds()),
	}
}

// RegisterRoutes registers /health (liveness) and /health/ready (dependencies)
func (h *HealthChecker) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": h.service,
		})
	}).Methods("GET")

	router.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		health := h.Check(r.Context())
		status := http.StatusOK
		if health.Status == "unhealthy" {
			status = http.StatusServiceUnavailable
		}
		respondJSON(w, status, health)
	}).Methods("GET")
}
