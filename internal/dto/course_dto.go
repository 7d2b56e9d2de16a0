package dto

import (
	"strings"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// CourseForm captures the admin create/edit course form. ID is set when an
// existing course is being edited.
type CourseForm struct {
	ID          uint   `json:"id" form:"id"`
	Name        string `json:"name" form:"name" validate:"required,max=100"`
	Professor   string `json:"professor" form:"professor" validate:"required,max=100"`
	Code        string `json:"code" form:"code" validate:"required,len=8"`
	Description string `json:"description" form:"description" validate:"required,max=100000"`
}

// Normalize trims surrounding whitespace from every text field.
func (f CourseForm) Normalize() CourseForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Professor = strings.TrimSpace(f.Professor)
	f.Code = strings.TrimSpace(f.Code)
	f.Description = strings.TrimSpace(f.Description)
	return f
}

// NewCourseForm fills a form from a stored course.
func NewCourseForm(course models.Course) CourseForm {
	return CourseForm{
		ID:          course.ID,
		Name:        course.Name,
		Professor:   course.Professor,
		Code:        course.Code,
		Description: course.Description,
	}
}

// CourseResponse serializes a course.
type CourseResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Professor   string `json:"professor"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// NewCourseResponse converts a course model into a DTO.
func NewCourseResponse(course models.Course) CourseResponse {
	return CourseResponse{
		ID:          course.ID,
		Name:        course.Name,
		Professor:   course.Professor,
		Code:        course.Code,
		Description: course.Description,
	}
}

// NewCourseResponses converts a slice of course models.
func NewCourseResponses(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}
	return responses
}

// StudentCourseResponse is a course as seen by an enrolled student.
type StudentCourseResponse struct {
	CourseResponse
	Grade string `json:"grade"`
}

// CourseDetailResponse describes one course and how many students take it.
type CourseDetailResponse struct {
	CourseResponse
	EnrolledCount int64 `json:"enrolled_count"`
}

// DashboardResponse carries the admin landing page counters.
type DashboardResponse struct {
	Courses  int64 `json:"courses"`
	Students int64 `json:"students"`
}

// ReconcileSummary reports what startup reconciliation changed.
type ReconcileSummary struct {
	DuplicatesRemoved int      `json:"duplicates_removed"`
	LegacyRemoved     bool     `json:"legacy_removed"`
	Seeded            []string `json:"seeded"`
	Skipped           []string `json:"skipped"`
}
