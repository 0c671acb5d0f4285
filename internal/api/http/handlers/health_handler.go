package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tickitpro/ticket-service/internal/persistence"
)

// HealthHandler reports service and dependency health.
type HealthHandler struct {
	version  string
	postgres *persistence.Postgres
	redis    *persistence.Redis
}

// NewHealthHandler builds the handler.
func NewHealthHandler(version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{version: version, postgres: postgres, redis: redis}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := fiber.StatusOK
	checks := fiber.Map{}

	if err := h.postgres.Ping(c.Context()); err != nil {
		checks["postgres"] = err.Error()
		status = fiber.StatusServiceUnavailable
	} else {
		checks["postgres"] = "ok"
	}

	if err := h.redis.Ping(c.Context()); err != nil {
		checks["redis"] = err.Error()
	} else {
		checks["redis"] = "ok"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  statusLabel(status),
		"version": h.version,
		"checks":  checks,
	})
}

func statusLabel(status int) string {
	if status == fiber.StatusOK {
		return "healthy"
	}
	return "degraded"
}
