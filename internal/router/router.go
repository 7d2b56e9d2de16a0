package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/noah-isme/gema-lms-api/internal/config"
	"github.com/noah-isme/gema-lms-api/internal/handler"
	"github.com/noah-isme/gema-lms-api/internal/middleware"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	AdminHandler   *handler.AdminHandler
	CourseHandler  *handler.CourseHandler
	StudentHandler *handler.StudentHandler
	SeedHandler    *handler.SeedHandler
	EventStream    *handler.EventStreamHandler
	HealthChecks   map[string]handler.Pinger
	LoginLimiter   fiber.Handler
	Flashes        *session.Store
}

// Register wires the HTTP routes into the fiber application. Authentication
// must already be registered on app; role rules are applied per group here.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	if deps.Flashes != nil {
		app.Use(handler.Flashes(deps.Flashes))
	}

	app.Get("/healthz", handler.HealthCheck(cfg, deps.HealthChecks))
	app.Get("/metrics", observability.MetricsHandler())
	if cfg.StaticDir != "" {
		app.Static("/img", cfg.StaticDir)
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(app, deps.LoginLimiter)
	}

	if deps.AdminHandler != nil {
		admin := app.Group("/admin", middleware.RequireRole(string(models.RoleAdmin)))
		deps.AdminHandler.Register(admin)
		if deps.SeedHandler != nil {
			deps.SeedHandler.Register(admin.Group("/seed"))
		}
		if deps.EventStream != nil {
			deps.EventStream.Register(admin.Group("/events"))
		}
	}

	if deps.StudentHandler != nil {
		student := app.Group("/student", middleware.RequireRole(string(models.RoleStudent)))
		deps.StudentHandler.Register(student)
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(app)

		api := app.Group("/api/v1", func(c *fiber.Ctx) error {
			c.Set("X-Application", cfg.AppName)
			return c.Next()
		})
		deps.CourseHandler.RegisterAPI(api)
	}
}
