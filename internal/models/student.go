package models

import "time"

// Student represents a learner that can enroll in courses.
//
// StudentID is the external 9-digit identifier used as the login username;
// ID is the surrogate key referenced by enrollments.
type Student struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StudentID    string    `gorm:"size:9;uniqueIndex;not null" json:"student_id"`
	StudentEmail string    `gorm:"size:255;uniqueIndex;not null" json:"student_email"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
