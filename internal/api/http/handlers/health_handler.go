package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-dashboard/internal/auth"
	"github.com/spec-kit/helpdesk-dashboard/internal/persistence"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    *persistence.Postgres
	redis       *persistence.Redis
	sessions    auth.SessionLookup
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis, sessions auth.SessionLookup) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, postgres: postgres, redis: redis, sessions: sessions}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies. Stores that are
// not configured are reported as disabled and do not fail the probe.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	check := func(name string, ping func(context.Context) error) {
		err := ping(ctx)
		switch {
		case errors.Is(err, persistence.ErrNotConfigured):
			depStatus[name] = "disabled"
		case err != nil:
			depStatus[name] = err.Error()
			ready = false
		default:
			depStatus[name] = "ok"
		}
	}
	check("postgres", h.postgres.Ping)
	check("redis", h.redis.Ping)

	depStatus["session"] = "none"
	if h.sessions != nil {
		if _, ok := h.sessions.Current(); ok {
			depStatus["session"] = "active"
		}
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
