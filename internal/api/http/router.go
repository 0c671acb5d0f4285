package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/tickitpro/ticket-service/internal/api/http/handlers"
	"github.com/tickitpro/ticket-service/internal/auth"
	"github.com/tickitpro/ticket-service/internal/domain"
	"github.com/tickitpro/ticket-service/internal/observability"
)

// RouterDeps bundles everything route registration needs.
type RouterDeps struct {
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Auth        *auth.AuthMiddleware
	Users       *handlers.UserHandler
	Departments *handlers.DepartmentHandler
	Health      *handlers.HealthHandler
}

// RegisterRoutes mounts middleware and all HTTP routes.
func RegisterRoutes(app *fiber.App, deps RouterDeps) {
	app.Use(recover.New())
	app.Use(observability.RequestLogger(deps.Logger, deps.Metrics))

	app.Get("/health", deps.Health.Check)

	authGroup := app.Group("/auth/users")
	authGroup.Post("/register", deps.Users.Register)
	authGroup.Post("/login", deps.Users.Login)
	authGroup.Post("/password-reset", deps.Users.RequestPasswordReset)
	authGroup.Post("/password-reset/confirm", deps.Users.ConfirmPasswordReset)

	users := app.Group("/users", deps.Auth.Handle)
	users.Get("/", auth.RequireRole(domain.RoleAdmin), deps.Users.List)
	users.Get("/:id", auth.RequireSelfOrRole(domain.RoleAdmin), deps.Users.Get)
	users.Patch("/:id", auth.RequireSelfOrRole(domain.RoleAdmin), deps.Users.Update)
	users.Delete("/:id", auth.RequireRole(domain.RoleAdmin), deps.Users.Remove)
	users.Post("/:id/password", auth.RequireSelfOrRole(), deps.Users.ChangePassword)

	departments := app.Group("/departments", deps.Auth.Handle)
	departments.Get("/", deps.Departments.List)
	departments.Get("/:id", deps.Departments.Get)
	departments.Post("/", auth.RequireRole(domain.RoleAdmin), deps.Departments.Create)
}
