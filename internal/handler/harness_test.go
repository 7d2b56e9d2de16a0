package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

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

const (
	adminUsername   = "123456788"
	adminPassword   = "Jessica123"
	studentUsername = "123456789"
	studentPassword = "password123"
)

type testApp struct {
	app *fiber.App
	db  *gorm.DB
	hub *events.Hub
}

type envelope struct {
	Success bool                   `json:"success"`
	View    string                 `json:"view"`
	Data    map[string]interface{} `json:"data"`
	Message string                 `json:"message"`
	Errors  map[string]string      `json:"errors"`
}

// newTestApp boots the full middleware and route stack over an in-memory
// database seeded with the default accounts and catalogue (course ids 1..3).
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := zerolog.Nop()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.NewGormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	validate := validator.New(validator.WithRequiredStructEnabled())
	repos := repository.NewRepositories(db)
	transactor := repository.NewTransactor(db)
	hub := events.NewHub(logger)
	publisher := events.Fanout(events.NewNopPublisher(), hub)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	auth := service.NewAuthService(repos.Users, transactor, redisClient, validate, service.AuthOptions{
		Secret:     "handler-test-secret",
		BcryptCost: bcrypt.MinCost,
	}, logger)
	courses := service.NewCourseService(repos, transactor, validate, publisher, activity, service.CourseOptions{CompactIDs: true}, logger)
	enrollments := service.NewEnrollmentService(repos, transactor, publisher, logger)

	require.NoError(t, auth.SeedUsers(ctx, []service.SeedUser{
		{Username: adminUsername, Password: adminPassword, Role: models.RoleAdmin},
		{Username: studentUsername, Password: studentPassword, Role: models.RoleStudent, Email: "student1@university.edu"},
	}))
	seeder := service.NewSeedService(transactor, service.SeedOptions{Catalogue: service.DefaultCourses()}, logger)
	_, err = seeder.Reconcile(ctx)
	require.NoError(t, err)
	require.NoError(t, database.EnforceCourseKeys(db))

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler(logger)})
	middleware.Register(app, middleware.Config{Logger: &logger, Authenticator: auth})
	router.Register(app, config.Config{AppName: "LMS API", AppEnv: "test"}, router.Dependencies{
		AuthHandler:    handler.NewAuthHandler(auth, false, logger),
		AdminHandler:   handler.NewAdminHandler(courses, activity, logger),
		CourseHandler:  handler.NewCourseHandler(enrollments, courses, logger),
		StudentHandler: handler.NewStudentHandler(enrollments, logger),
		SeedHandler:    handler.NewSeedHandler(seeder, logger),
		EventStream:    handler.NewEventStreamHandler(hub, logger),
		Flashes:        handler.NewFlashStore(false),
	})

	return &testApp{app: app, db: db, hub: hub}
}

func (a *testApp) do(t *testing.T, method, path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (a *testApp) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	cookie := findCookie(resp, middleware.AccessTokenCookie)
	require.NotNil(t, cookie, "login did not set the access token cookie")
	return cookie
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func decodeRaw(t *testing.T, resp *http.Response) interface{} {
	t.Helper()
	defer resp.Body.Close()
	var payload interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

