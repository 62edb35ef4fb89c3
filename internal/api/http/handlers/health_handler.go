package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DependencyCheck names a readiness probe target.
type DependencyCheck struct {
	Name   string
	Target Pinger
}

// HealthHandler serves /health/live and /health/ready.
type HealthHandler struct {
	service string
	version string
	checks  []DependencyCheck
}

// NewHealthHandler builds a handler probing checks on readiness.
func NewHealthHandler(service, version string, checks ...DependencyCheck) *HealthHandler {
	return &HealthHandler{service: service, version: version, checks: checks}
}

// Live reports that the process is serving.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.service,
		"version": h.version,
	})
}

// Ready pings every dependency concurrently and answers 503 if any fails.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	results, healthy := h.probe(c.UserContext())
	if healthy {
		return c.JSON(fiber.Map{"status": "ready", "dependencies": results})
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": results,
		},
	})
}

func (h *HealthHandler) probe(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(h.checks))
		healthy = true
	)
	// Failures are recorded per dependency, so the group never cancels early.
	var g errgroup.Group
	for _, check := range h.checks {
		check := check
		g.Go(func() error {
			status := "ok"
			if err := check.Target.Ping(ctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			results[check.Name] = status
			if status != "ok" {
				healthy = false
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, healthy
}
