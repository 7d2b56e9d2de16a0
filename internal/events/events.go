// Package events publishes enrollment domain events to interested consumers.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Event types emitted by the course and enrollment services.
const (
	TypeCourseSaved       = "course.saved"
	TypeCourseDeleted     = "course.deleted"
	TypeEnrollmentCreated = "enrollment.created"
	TypeEnrollmentRemoved = "enrollment.removed"
	TypeGradeAssigned     = "grade.assigned"
)

// DefaultPrefix is used when no subject prefix is configured.
const DefaultPrefix = "lms"

// Event describes a change to courses or enrollments.
type Event struct {
	Type       string    `json:"type"`
	CourseID   uint      `json:"course_id"`
	StudentID  uint      `json:"student_id,omitempty"`
	Grade      *string   `json:"grade,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subject builds the message subject for an event type.
func Subject(prefix, eventType string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "." + eventType
}

func encode(event Event) ([]byte, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(event)
}

type nopPublisher struct{}

// NewNopPublisher returns a publisher that drops every event.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, Event) error {
	return nil
}
