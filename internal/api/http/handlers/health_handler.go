package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/support-triage/pkg/util"
)

const probeTimeout = 2 * time.Second

// DependencyCheck probes one backing store.
type DependencyCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler answers liveness and readiness probes for the triage server.
type HealthHandler struct {
	serviceName string
	version     string
	startedAt   time.Time
	checks      []DependencyCheck
}

// NewHealthHandler builds a handler that reports ready only when every check passes.
func NewHealthHandler(serviceName, version string, checks ...DependencyCheck) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, startedAt: time.Now(), checks: checks}
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "alive",
		"service":        h.serviceName,
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// Ready GET /health/ready. Stores are pinged in parallel.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), probeTimeout)
	defer cancel()

	report, healthy := h.probe(ctx)
	if !healthy {
		return apperrors.NewDomainError("DEPENDENCY_UNAVAILABLE", "one or more stores unavailable",
			http.StatusServiceUnavailable, report)
	}
	return c.JSON(fiber.Map{"status": "ready", "dependencies": report})
}

func (h *HealthHandler) probe(ctx context.Context) (map[string]any, bool) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		report  = make(map[string]any, len(h.checks))
		healthy = true
	)
	for _, check := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := check.Ping(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report[check.Name] = err.Error()
				healthy = false
				return
			}
			report[check.Name] = "ok"
		}()
	}
	wg.Wait()
	return report, healthy
}
