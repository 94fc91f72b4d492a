package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/poacpm/api/pkg/config"
	"github.com/poacpm/api/pkg/errx"
	"github.com/poacpm/api/pkg/logx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("failed to load configuration: %v", err)
	}

	logx.Info("starting poac registry API server")

	container := NewContainer(cfg)
	defer container.Cleanup()

	app := fiber.New(fiber.Config{
		AppName:               "poac registry API",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: uuid.NewString,
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods: "GET, POST, HEAD, OPTIONS",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	app.Get("/health", healthCheckHandler(container))

	container.AuthHandlers.RegisterRoutes(app)
	logx.Info("auth routes registered")

	container.CatalogHandlers.RegisterRoutes(app)
	logx.Info("catalog routes registered")

	app.Use(notFoundHandler)

	startServer(app, cfg)
}

// healthCheckHandler reports the state of the shared infrastructure.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": "poac-registry-api",
		}

		if err := container.DB.PingContext(c.Context()); err != nil {
			health["db"] = "unhealthy"
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		if err := container.Redis.Ping(c.Context()).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["status"] = "degraded"
		} else {
			health["redis"] = "healthy"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

// notFoundHandler handles unmatched routes.
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.GetRespHeader("X-Request-ID"),
	})
}

// globalErrorHandler converts internal errors to standard HTTP responses.
func globalErrorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"ip":         c.IP(),
		"request_id": c.GetRespHeader("X-Request-ID"),
	}).Errorf("request error: %v", err)

	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error":  e.Message,
			"code":   "FIBER_ERROR",
			"status": e.Code,
		})
	}

	var e *errx.Error
	if errx.As(err, &e) {
		response := fiber.Map{
			"error":  e.Message,
			"code":   e.Code,
			"type":   string(e.Type),
			"status": e.HTTPStatus,
		}
		if len(e.Details) > 0 {
			response["details"] = e.Details
		}
		return c.Status(e.HTTPStatus).JSON(response)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":  "Internal Server Error",
		"code":   "INTERNAL_ERROR",
		"status": fiber.StatusInternalServerError,
	})
}

// startServer starts the server and blocks until shutdown completes.
func startServer(app *fiber.App, cfg *config.Config) {
	go func() {
		logx.Infof("server listening on port %s", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logx.Fatalf("server error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logx.Info("shutdown signal received")
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		logx.Errorf("server forced to shutdown: %v", err)
	}
	logx.Info("server exited")
}
