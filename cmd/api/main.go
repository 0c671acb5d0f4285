package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httpapi "github.com/tickitpro/ticket-service/internal/api/http"
	"github.com/tickitpro/ticket-service/internal/api/http/handlers"
	"github.com/tickitpro/ticket-service/internal/auth"
	"github.com/tickitpro/ticket-service/internal/config"
	"github.com/tickitpro/ticket-service/internal/events"
	"github.com/tickitpro/ticket-service/internal/observability"
	"github.com/tickitpro/ticket-service/internal/persistence"
	"github.com/tickitpro/ticket-service/internal/repository"
	"github.com/tickitpro/ticket-service/internal/service"
	"github.com/tickitpro/ticket-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := postgres.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	deptRepo := repository.NewDepartmentRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	departments := service.NewDepartmentService(deptRepo, redis)
	users := service.NewUserService(*cfg, service.UserDependencies{
		UserRepo:          userRepo,
		Departments:       departments,
		PasswordResetRepo: resetRepo,
		Dispatcher:        dispatcher,
	})
	notifications := service.NewNotificationService(cfg.Notification, logger)
	worker.RegisterNotificationHandlers(dispatcher, notifications)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout(),
		WriteTimeout: cfg.App.RequestTimeout(),
		ErrorHandler: httpapi.NewErrorHandler(logger, metrics),
	})

	httpapi.RegisterRoutes(app, httpapi.RouterDeps{
		Logger:      logger,
		Metrics:     metrics,
		Auth:        auth.NewAuthMiddleware(users.TokenManager(), userRepo),
		Users:       handlers.NewUserHandler(users),
		Departments: handlers.NewDepartmentHandler(departments),
		Health:      handlers.NewHealthHandler(cfg.App.Version, postgres, redis),
	})

	go func() {
		logger.Info("starting http server",
			zap.String("addr", cfg.App.Addr()),
			zap.String("env", cfg.App.Env),
		)
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
