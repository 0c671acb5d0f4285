package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tickitpro/ticket-service/internal/observability"
	apperrors "github.com/tickitpro/ticket-service/pkg/util"
)

// NewErrorHandler renders every error through the shared envelope
// {"error":{"code","message","details?"}}, counts it, and logs server-side
// failures.
func NewErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "HTTP_ERROR",
					"message": fiberErr.Message,
				},
			})
		}

		domainErr := apperrors.ToDomainError(err)
		metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
		if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("code", domainErr.Code),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		payload := fiber.Map{
			"code":    domainErr.Code,
			"message": domainErr.Message,
		}
		if len(domainErr.Details) > 0 {
			payload["details"] = domainErr.Details
		}
		return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": payload})
	}
}
