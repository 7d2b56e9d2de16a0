package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// AdminHandler serves the administrator pages under /admin.
type AdminHandler struct {
	courses  service.CourseService
	activity service.ActivityService
	logger   zerolog.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(courses service.CourseService, activity service.ActivityService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		courses:  courses,
		activity: activity,
		logger:   logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register attaches admin routes to the router group.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Get("", h.dashboard)
	router.Get("/addNewcourses", h.newCourse)
	router.Get("/course-edit/:id", h.editCourse)
	router.Post("/add-course", h.saveCourse)
	router.Get("/course-delete/:id", h.deleteCourse)
	router.Post("/course-delete/:id/:studentId", h.removeStudent)
	router.Post("/course/:courseId/grade/:studentId", h.assignGrade)
	router.Get("/all-students", h.allStudents)
	router.Get("/course/:courseId/students", h.courseStudents)
	router.Get("/activity", h.listActivity)
}

func (h *AdminHandler) dashboard(c *fiber.Ctx) error {
	counts, err := h.courses.Dashboard(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load dashboard counts")
		return err
	}

	return renderPage(c, fiber.StatusOK, viewAdminPage, fiber.Map{
		"courses":  counts.Courses,
		"students": counts.Students,
	})
}

func (h *AdminHandler) newCourse(c *fiber.Ctx) error {
	return renderPage(c, fiber.StatusOK, viewCourseAdding, fiber.Map{"course": dto.CourseForm{}})
}

func (h *AdminHandler) editCourse(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return renderError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.courses.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return renderError(c, fiber.StatusNotFound, "Course not found")
		}
		return err
	}

	form := dto.CourseForm{
		ID:          course.ID,
		Name:        course.Name,
		Professor:   course.Professor,
		Code:        course.Code,
		Description: course.Description,
	}
	return renderPage(c, fiber.StatusOK, viewCourseAdding, fiber.Map{"course": form})
}

func (h *AdminHandler) saveCourse(c *fiber.Ctx) error {
	var form dto.CourseForm
	if err := c.BodyParser(&form); err != nil {
		return utils.SendViewWithErrors(c, fiber.StatusBadRequest, viewCourseAdding, "invalid payload", fiber.Map{"course": form}, nil)
	}

	saved, err := h.courses.Save(c.UserContext(), form, activityActorFromContext(c))
	if err != nil {
		var validationErr *service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return utils.SendViewWithErrors(c, fiber.StatusBadRequest, viewCourseAdding, "validation failed", fiber.Map{"course": form.Normalize()}, validationErr.Fields)
		case errors.Is(err, service.ErrCourseConflict):
			return utils.SendViewWithErrors(c, fiber.StatusConflict, viewCourseAdding, "course already exists", fiber.Map{"course": form.Normalize()}, map[string]string{
				"code": "A course with this name or code already exists",
			})
		default:
			requestLogger(h.logger, c).Error().Err(err).Str("code", form.Code).Msg("failed to save course")
			return redirectWithFlash(c, "/all-courses", flashError, "Error saving course")
		}
	}

	requestLogger(h.logger, c).Info().Uint("course_id", saved.ID).Msg("course saved")
	return redirectWithFlash(c, "/all-courses", flashMessage, "A new course has been added successfully.")
}

func (h *AdminHandler) deleteCourse(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return redirectWithFlash(c, "/all-courses", flashError, "Course not found")
	}

	if err := h.courses.Delete(c.UserContext(), id, activityActorFromContext(c)); err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return redirectWithFlash(c, "/all-courses", flashError, "Course not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("course_id", id).Msg("failed to delete course")
		return redirectWithFlash(c, "/all-courses", flashError, "Error deleting course")
	}

	return redirectWithFlash(c, "/all-courses", flashMessage, "The course has been deleted successfully.")
}

func (h *AdminHandler) removeStudent(c *fiber.Ctx) error {
	rawCourseID := c.Params("id")
	target := fmt.Sprintf("/admin/course/%s/students", rawCourseID)

	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return redirectWithFlash(c, target, flashError, "Course not found")
	}
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return redirectWithFlash(c, target, flashError, "Error removing student: invalid identifier")
	}

	if err := h.courses.RemoveStudent(c.UserContext(), courseID, studentID, activityActorFromContext(c)); err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return redirectWithFlash(c, target, flashError, "Course not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("course_id", courseID).Uint("student_id", studentID).Msg("failed to remove student")
		return redirectWithFlash(c, target, flashError, "Error removing student: "+err.Error())
	}

	return redirectWithFlash(c, target, flashSuccess, "Student removed successfully")
}

func (h *AdminHandler) assignGrade(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	grade, ok := gradeParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "grade is required")
	}
	req := dto.GradeRequest{Grade: grade}

	err = h.courses.AssignGrade(c.UserContext(), courseID, studentID, req, activityActorFromContext(c))
	if err != nil {
		var validationErr *service.ValidationError
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "Course not found")
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "Student not found")
		case errors.As(err, &validationErr):
			return utils.SendError(c, fiber.StatusBadRequest, validationErr.Fields["grade"])
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("course_id", courseID).Uint("student_id", studentID).Msg("failed to assign grade")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to assign grade")
		}
	}

	return utils.SendSuccess(c, "Grade assigned successfully", nil)
}

// gradeParam reads the grade from a JSON body, a form body or the query
// string. A blank grade is a value; only a missing parameter is rejected.
func gradeParam(c *fiber.Ctx) (string, bool) {
	if c.Is("json") {
		var payload struct {
			Grade *string `json:"grade"`
		}
		if err := c.BodyParser(&payload); err == nil && payload.Grade != nil {
			return *payload.Grade, true
		}
	}
	if args := c.Request().PostArgs(); args.Has("grade") {
		return string(args.Peek("grade")), true
	}
	if form, err := c.MultipartForm(); err == nil {
		if values, ok := form.Value["grade"]; ok && len(values) > 0 {
			return values[0], true
		}
	}
	if args := c.Context().QueryArgs(); args.Has("grade") {
		return string(args.Peek("grade")), true
	}
	return "", false
}

func (h *AdminHandler) allStudents(c *fiber.Ctx) error {
	students, err := h.courses.ListStudents(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list students")
		return err
	}

	return renderPage(c, fiber.StatusOK, viewStudentsPage, fiber.Map{
		"students": students,
		"course":   nil,
	})
}

func (h *AdminHandler) courseStudents(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return renderError(c, fiber.StatusBadRequest, err.Error())
	}

	course, students, err := h.courses.ListCourseStudents(c.UserContext(), courseID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return renderPage(c, fiber.StatusOK, viewStudentsPage, fiber.Map{})
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("course_id", courseID).Msg("failed to list course students")
		return err
	}

	return renderPage(c, fiber.StatusOK, viewStudentsPage, fiber.Map{
		"students": students,
		"course":   course,
	})
}

func (h *AdminHandler) listActivity(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	if page <= 0 {
		page = 1
	}

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	if pageSize <= 0 {
		pageSize = 25
	} else if pageSize > 200 {
		pageSize = 200
	}

	response, err := h.activity.List(c.UserContext(), dto.ActivityListRequest{
		Page:       page,
		PageSize:   pageSize,
		Actor:      c.Query("actor"),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	})
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list activity logs")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list activity logs")
	}

	return utils.SendSuccess(c, "activity logs", response)
}
