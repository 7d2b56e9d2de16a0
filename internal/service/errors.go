package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrCourseNotFound indicates the course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrStudentNotFound indicates the student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrCourseConflict indicates another course already uses the name or code.
	ErrCourseConflict = errors.New("course name or code already exists")
)

// ValidationError lists user-facing messages keyed by form field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, e.Fields[key]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// fieldMessage maps a lower-cased field name and failed tag to a message.
type fieldMessage func(field, tag, param string) string

func newValidationError(err error, message fieldMessage) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field())
		if _, seen := fields[field]; seen {
			continue
		}
		fields[field] = message(field, fe.Tag(), fe.Param())
	}
	return &ValidationError{Fields: fields}
}

func courseFieldMessage(field, tag, param string) string {
	switch {
	case field == "name" && tag == "required":
		return "Please enter course name"
	case field == "professor" && tag == "required":
		return "Please enter professor name"
	case field == "code" && tag == "required":
		return "Please enter course code"
	case field == "code" && tag == "len":
		return "Code name should be 8 characters"
	case field == "description" && tag == "required":
		return "Please enter description"
	case tag == "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func gradeFieldMessage(field, tag, param string) string {
	if tag == "max" {
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	}
	return fmt.Sprintf("%s is invalid", field)
}
