package handler_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestCourseDetailPage(t *testing.T) {
	app := newTestApp(t)
	student := app.login(t, studentUsername, studentPassword)

	resp := app.do(t, http.MethodGet, "/student/courses/1/add", nil, student)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	page := decodeEnvelope(t, app.do(t, http.MethodGet, "/courses/1", nil, student))
	require.Equal(t, "course-page", page.View)
	course, ok := page.Data["course"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "10204011", course["code"])
	require.EqualValues(t, 1, course["enrolled_count"])

	resp = app.do(t, http.MethodGet, "/courses/99", nil, student)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	missing := decodeEnvelope(t, resp)
	require.Equal(t, "error", missing.View)
	require.Equal(t, "Course not found", missing.Message)
}

func TestCourseAPI(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, adminUsername, adminPassword)

	resp := app.do(t, http.MethodGet, "/api/v1/courses", nil, admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "LMS API", resp.Header.Get("X-Application"))

	resp = app.do(t, http.MethodGet, "/api/v1/courses/3", nil, admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Discrete Mathematics", decodeEnvelope(t, resp).Data["name"])

	resp = app.do(t, http.MethodGet, "/api/v1/courses/abc", nil, admin)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/api/v1/courses/99", nil, admin)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "course not found", decodeEnvelope(t, resp).Message)
}
