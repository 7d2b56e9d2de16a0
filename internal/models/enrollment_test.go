package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnrollmentDisplayGrade(t *testing.T) {
	blank := "  "
	graded := "A+"

	require.Equal(t, NoGrade, Enrollment{}.DisplayGrade())
	require.Equal(t, NoGrade, Enrollment{Grade: &blank}.DisplayGrade())
	require.Equal(t, "A+", Enrollment{Grade: &graded}.DisplayGrade())
}
