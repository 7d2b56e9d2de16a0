package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// CourseHandler serves the course catalogue pages shared by every role.
type CourseHandler struct {
	enrollments service.EnrollmentService
	courses     service.CourseService
	logger      zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(enrollments service.EnrollmentService, courses service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		enrollments: enrollments,
		courses:     courses,
		logger:      logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches the catalogue pages.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("/all-courses", h.allCourses)
	router.Get("/courses/:id", h.courseDetail)
}

// RegisterAPI attaches the JSON catalogue endpoints.
func (h *CourseHandler) RegisterAPI(router fiber.Router) {
	router.Get("/courses", h.listCourses)
	router.Get("/courses/:id", h.getCourse)
}

// allCourses lists every course for administrators and the courses a student
// can still join for everyone else.
func (h *CourseHandler) allCourses(c *fiber.Ctx) error {
	identity := identityFromContext(c)

	courses, err := h.enrollments.AvailableCourses(c.UserContext(), identity)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Str("username", identity.Username).Msg("failed to list courses")
		return err
	}

	return renderPage(c, fiber.StatusOK, viewCoursesPage, fiber.Map{
		"courses": courses,
		"email":   identity.Username,
	})
}

func (h *CourseHandler) courseDetail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return renderError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.enrollments.CourseDetail(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return renderError(c, fiber.StatusNotFound, "Course not found")
		}
		return err
	}

	return renderPage(c, fiber.StatusOK, viewCoursePage, fiber.Map{
		"course": course,
		"email":  identityFromContext(c).Username,
	})
}

func (h *CourseHandler) listCourses(c *fiber.Ctx) error {
	courses, err := h.courses.List(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list courses")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list courses")
	}

	return utils.SendSuccess(c, "courses", courses)
}

func (h *CourseHandler) getCourse(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.enrollments.CourseDetail(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("course_id", id).Msg("failed to load course")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load course")
	}

	return utils.SendSuccess(c, "course", course)
}
