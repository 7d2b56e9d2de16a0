package models

import (
	"strings"
	"time"
)

// NoGrade is displayed for enrollments that have not been graded yet.
const NoGrade = "Nil"

// Enrollment links one student to one course and optionally carries the grade
// assigned for that pair. StudentID references Student.ID.
type Enrollment struct {
	CourseID  uint      `gorm:"primaryKey;autoIncrement:false" json:"course_id"`
	StudentID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"student_id"`
	Grade     *string   `gorm:"size:32" json:"grade"`
	CreatedAt time.Time `json:"created_at"`
	Course    Course    `gorm:"foreignKey:CourseID" json:"-"`
	Student   Student   `gorm:"foreignKey:StudentID" json:"-"`
}

// DisplayGrade returns the stored grade or NoGrade when none is recorded.
func (e Enrollment) DisplayGrade() string {
	if e.Grade == nil || strings.TrimSpace(*e.Grade) == "" {
		return NoGrade
	}
	return *e.Grade
}
