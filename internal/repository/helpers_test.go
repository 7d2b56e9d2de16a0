package repository

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/database"
	"github.com/noah-isme/gema-lms-api/internal/models"
)

// setupTestDB opens an isolated in-memory database with the full schema and
// the course key constraints in place.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := setupLegacyDB(t)
	require.NoError(t, database.EnforceCourseKeys(db))
	return db
}

// setupLegacyDB opens a database without the course key constraints, as found
// before reconciliation.
func setupLegacyDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.NewGormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func createCourse(t *testing.T, db *gorm.DB, name, code string) models.Course {
	t.Helper()
	course := models.Course{Name: name, Professor: "Dr. Test", Code: code, Description: name + " description"}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func createStudent(t *testing.T, db *gorm.DB, studentID string) models.Student {
	t.Helper()
	student := models.Student{StudentID: studentID, StudentEmail: studentID + "@university.edu"}
	require.NoError(t, db.Create(&student).Error)
	return student
}
