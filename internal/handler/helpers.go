package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/middleware"
	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// View names rendered by the page handlers.
const (
	viewIndex          = "index"
	viewLogin          = "login"
	viewError          = "error"
	viewAdminPage      = "admin-page"
	viewCourseAdding   = "course-adding"
	viewStudentsPage   = "students-page"
	viewCoursesPage    = "courses-page"
	viewCoursePage     = "course-page"
	viewStudentPage    = "student-page"
	viewStudentCourses = "student-courses"
)

var errInvalidIdentifier = errors.New("invalid identifier")

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errInvalidIdentifier
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func identityFromContext(c *fiber.Ctx) dto.Identity {
	identity, _ := middleware.IdentityFromContext(c)
	return identity
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	identity := identityFromContext(c)
	return service.ActivityActor{
		Username: identity.Username,
		Role:     string(identity.Role),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := middleware.RequestLogger(base, c)
	return &logger
}

// renderPage sends a view with its model, folding in any pending flash messages.
func renderPage(c *fiber.Ctx, status int, view string, model fiber.Map) error {
	if model == nil {
		model = fiber.Map{}
	}
	if flash := consumeFlash(c); len(flash) > 0 {
		model["flash"] = flash
	}
	return utils.SendView(c, status, view, model)
}

func renderError(c *fiber.Ctx, status int, message string) error {
	return utils.SendViewWithErrors(c, status, viewError, message, fiber.Map{"status": status}, nil)
}
