package dto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

func TestCourseFormNormalize(t *testing.T) {
	form := CourseForm{Name: "  Digital Systems ", Professor: "\tDr. Simcha Rozen", Code: " 10203012 ", Description: " bits "}.Normalize()

	require.Equal(t, "Digital Systems", form.Name)
	require.Equal(t, "Dr. Simcha Rozen", form.Professor)
	require.Equal(t, "10203012", form.Code)
	require.Equal(t, "bits", form.Description)
}

func TestNewCourseFormCopiesStoredValues(t *testing.T) {
	course := models.Course{ID: 4, Name: "Discrete Mathematics", Professor: "Dr. Eran London", Code: "10202011", Description: "logic"}
	form := NewCourseForm(course)

	require.Equal(t, uint(4), form.ID)
	require.Equal(t, course.Code, form.Code)
	require.Len(t, NewCourseResponses([]models.Course{course, course}), 2)
}
