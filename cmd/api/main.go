package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/config"
	"github.com/noah-isme/gema-lms-api/internal/database"
	"github.com/noah-isme/gema-lms-api/internal/events"
	"github.com/noah-isme/gema-lms-api/internal/handler"
	"github.com/noah-isme/gema-lms-api/internal/middleware"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
	"github.com/noah-isme/gema-lms-api/internal/router"
	"github.com/noah-isme/gema-lms-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	ctx := context.Background()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient redis.Cmdable
	healthChecks := map[string]handler.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		redisClient = client
		healthChecks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	} else {
		logger.Warn().Msg("redis not configured; logout will not revoke tokens")
	}

	hub := events.NewHub(logger)
	var publisher events.Publisher = hub
	if cfg.NATSURL != "" {
		conn, err := events.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer conn.Drain()
		publisher = events.Fanout(hub, events.NewNATSPublisher(conn, cfg.EventPrefix))
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	repos := repository.NewRepositories(db)
	transactor := repository.NewTransactor(db)

	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	authService := service.NewAuthService(repos.Users, transactor, redisClient, validate, service.AuthOptions{
		Secret:     cfg.JWTSecret,
		TTL:        cfg.JWTTTL,
		BcryptCost: cfg.BcryptCost,
	}, logger)
	courseService := service.NewCourseService(repos, transactor, validate, publisher, activityService, service.CourseOptions{
		CompactIDs: cfg.CompactCourseIDs,
	}, logger)
	enrollmentService := service.NewEnrollmentService(repos, transactor, publisher, logger)
	seedService := service.NewSeedService(transactor, service.SeedOptions{
		Catalogue:         service.DefaultCourses(),
		PurgeLegacyCourse: cfg.PurgeLegacyCourse,
	}, logger)

	if err := authService.SeedUsers(ctx, []service.SeedUser{
		{Username: cfg.Seed.AdminUsername, Password: cfg.Seed.AdminPassword, Role: models.RoleAdmin},
		{Username: cfg.Seed.StudentUsername, Password: cfg.Seed.StudentPassword, Role: models.RoleStudent, Email: cfg.Seed.StudentEmail},
	}); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed users")
	}

	// Course keys can only be enforced once legacy duplicates are gone.
	if _, err := seedService.Reconcile(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to reconcile courses")
	}
	if err := database.EnforceCourseKeys(db); err != nil {
		if !errors.Is(err, database.ErrDuplicateCourseKeys) {
			logger.Fatal().Err(err).Msg("failed to enforce course keys")
		}
		logger.Warn().Err(err).Msg("course keys not enforced; duplicates need manual cleanup")
	}

	// On-demand reconciliation never purges the legacy course.
	catalogueService := service.NewSeedService(transactor, service.SeedOptions{
		Catalogue: service.DefaultCourses(),
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ErrorHandler: handler.ErrorHandler(logger),
	})

	middleware.Register(app, middleware.Config{
		Logger:        &logger,
		Authenticator: authService,
		AllowOrigins:  cfg.AllowOrigins,
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:    handler.NewAuthHandler(authService, cfg.IsProduction(), logger),
		AdminHandler:   handler.NewAdminHandler(courseService, activityService, logger),
		CourseHandler:  handler.NewCourseHandler(enrollmentService, courseService, logger),
		StudentHandler: handler.NewStudentHandler(enrollmentService, logger),
		SeedHandler:    handler.NewSeedHandler(catalogueService, logger),
		EventStream:    handler.NewEventStreamHandler(hub, logger),
		HealthChecks:   healthChecks,
		LoginLimiter:   middleware.RateLimit("login", cfg.LoginRateLimit, cfg.LoginRateWindow),
		Flashes:        handler.NewFlashStore(cfg.IsProduction()),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
