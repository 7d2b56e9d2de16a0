package dto

import "github.com/noah-isme/gema-lms-api/internal/models"

// StudentResponse serializes a student.
type StudentResponse struct {
	ID           uint   `json:"id"`
	StudentID    string `json:"student_id"`
	StudentEmail string `json:"student_email"`
}

// NewStudentResponse converts a student model into a DTO.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:           student.ID,
		StudentID:    student.StudentID,
		StudentEmail: student.StudentEmail,
	}
}

// CourseStudentResponse is an enrolled student with the grade recorded for the course.
type CourseStudentResponse struct {
	StudentResponse
	Grade string `json:"grade"`
}

// GradeRequest carries the grade assigned by an administrator.
type GradeRequest struct {
	Grade string `json:"grade" form:"grade" validate:"max=32"`
}
