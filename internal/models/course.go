package models

import "time"

// Course field limits.
const (
	CourseNameMaxLength        = 100
	CourseProfessorMaxLength   = 100
	CourseCodeLength           = 8
	CourseDescriptionMaxLength = 100000
)

// Course is a catalogue entry students can enroll in. Name and code are
// unique; the unique indexes are created after startup reconciliation so
// legacy duplicates can be cleaned first (see database.EnforceCourseKeys).
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;index" json:"name"`
	Professor   string    `gorm:"size:100;not null" json:"professor"`
	Code        string    `gorm:"size:8;not null;index" json:"code"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
