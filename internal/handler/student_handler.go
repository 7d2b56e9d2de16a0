package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/service"
)

// StudentHandler serves the pages under /student.
type StudentHandler struct {
	enrollments service.EnrollmentService
	logger      zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(enrollments service.EnrollmentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		enrollments: enrollments,
		logger:      logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student routes to the router group.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("", h.home)
	router.Get("/courses", h.courses)
	router.Get("/courses/:id/add", h.enroll)
}

func (h *StudentHandler) home(c *fiber.Ctx) error {
	username := identityFromContext(c).Username
	model := fiber.Map{"email": username}

	profile, err := h.enrollments.StudentProfile(c.UserContext(), username)
	switch {
	case err == nil:
		model["student"] = profile
	case !errors.Is(err, service.ErrStudentNotFound):
		requestLogger(h.logger, c).Warn().Err(err).Str("username", username).Msg("failed to load student profile")
	}

	return renderPage(c, fiber.StatusOK, viewStudentPage, model)
}

// courses renders the student's enrollments with grades. Failures propagate
// to the application error handler.
func (h *StudentHandler) courses(c *fiber.Ctx) error {
	username := identityFromContext(c).Username

	courses, err := h.enrollments.ListForStudent(c.UserContext(), username)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Str("username", username).Msg("failed to list student courses")
		return err
	}

	grades := make(map[uint]string, len(courses))
	for _, course := range courses {
		grades[course.ID] = course.Grade
	}

	return renderPage(c, fiber.StatusOK, viewStudentCourses, fiber.Map{
		"courses":      courses,
		"courseGrades": grades,
		"email":        username,
	})
}

func (h *StudentHandler) enroll(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.Redirect("/error", fiber.StatusFound)
	}

	username := identityFromContext(c).Username
	if err := h.enrollments.Enroll(c.UserContext(), id, username); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("course_id", id).Str("username", username).Msg("enrollment rejected")
		return c.Redirect("/error", fiber.StatusFound)
	}

	return c.Redirect("/student/courses", fiber.StatusFound)
}
