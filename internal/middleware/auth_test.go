package middleware

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
)

type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(_ context.Context, token string) (dto.Identity, error) {
	switch token {
	case "admin-token":
		return dto.Identity{Username: "123456788", Role: models.RoleAdmin}, nil
	case "student-token":
		return dto.Identity{Username: "123456789", Role: models.RoleStudent}, nil
	}
	return dto.Identity{}, errors.New("invalid token")
}

func (stubAuthenticator) VerifyCredentials(_ context.Context, username, password string) (dto.Identity, error) {
	if username == "123456789" && password == "password123" {
		return dto.Identity{Username: username, Role: models.RoleStudent}, nil
	}
	return dto.Identity{}, errors.New("invalid credentials")
}

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Use(Authenticate(stubAuthenticator{}, zerolog.Nop()))
	app.Use(RequireAuthentication())

	whoami := func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		return c.SendString(identity.Username + "|" + c.Locals("user_role").(string))
	}
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("index") })
	app.Get("/img/logo.png", func(c *fiber.Ctx) error { return c.SendString("png") })
	app.Get("/all-courses", whoami)
	app.Get("/api/v1/courses", whoami)
	return app
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestAuthenticateAcceptsBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
	req.Header.Set("Authorization", "Bearer admin-token")

	resp, err := newAuthApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "123456788|admin", body(t, resp))
}

func TestAuthenticateLogsRejectedCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	app := fiber.New()
	app.Use(CorrelationID())
	app.Use(Authenticate(stubAuthenticator{}, logger))
	app.Use(RequireAuthentication())
	app.Get("/api/v1/courses", func(c *fiber.Ctx) error { return c.SendString("ok") })

	cases := map[string]func(req *http.Request){
		"bearer token rejected": func(req *http.Request) { req.Header.Set("Authorization", "Bearer forged") },
		"basic credentials rejected": func(req *http.Request) {
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("123456789:wrong")))
		},
		"cookie token rejected": func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "expired"})
		},
	}

	for message, decorate := range cases {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
		req.Header.Set("X-Correlation-ID", "corr-42")
		decorate(req)

		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, message)
		require.Contains(t, buf.String(), message)
		require.Contains(t, buf.String(), `"correlation_id":"corr-42"`)
	}
}

func TestAuthenticateAcceptsCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/all-courses", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "student-token"})

	resp, err := newAuthApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "123456789|student", body(t, resp))
}

func TestAuthenticateAcceptsBasicCredentials(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("123456789:password123")))

	resp, err := newAuthApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("123456789:wrong")))
	resp, err = newAuthApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuthenticationRedirectsPages(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/all-courses", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "expired"})

	resp, err := newAuthApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRequireAuthenticationRejectsAnonymousAPI(t *testing.T) {
	resp, err := newAuthApp().Test(httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuthenticationAllowsPublicPaths(t *testing.T) {
	for _, path := range []string{"/", "/img/logo.png"} {
		resp, err := newAuthApp().Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}

	require.True(t, IsPublicPath("/login"))
	require.True(t, IsPublicPath("/healthz"))
	require.False(t, IsPublicPath("/imgs"))
	require.False(t, IsPublicPath("/admin"))
}

func TestAccessTokenPrefersBearer(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(AccessToken(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer header-token")
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-token"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "header-token", body(t, resp))
}
