package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// ErrDuplicateCourseKeys reports course keys left unenforced because stored
// rows already repeat them.
var ErrDuplicateCourseKeys = errors.New("duplicate course keys")

var courseKeyIndexes = []struct {
	column    string
	statement string
}{
	{"name", "CREATE UNIQUE INDEX IF NOT EXISTS idx_courses_name_unique ON courses (name)"},
	{"code", "CREATE UNIQUE INDEX IF NOT EXISTS idx_courses_code_unique ON courses (code)"},
}

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.Course{},
		&models.Enrollment{},
		&models.ActivityLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// EnforceCourseKeys adds the unique indexes on course name and code. It must
// run after duplicate names have been reconciled. A column whose stored values
// still repeat keeps no index; the others are still created and the skipped
// columns are reported through ErrDuplicateCourseKeys.
func EnforceCourseKeys(db *gorm.DB) error {
	var skipped []string
	for _, index := range courseKeyIndexes {
		var duplicates []string
		if err := db.Model(&models.Course{}).
			Select(index.column).
			Group(index.column).
			Having("COUNT(*) > ?", 1).
			Pluck(index.column, &duplicates).Error; err != nil {
			return fmt.Errorf("failed to inspect course %s values: %w", index.column, err)
		}
		if len(duplicates) > 0 {
			skipped = append(skipped, fmt.Sprintf("%s (%s)", index.column, strings.Join(duplicates, ", ")))
			continue
		}

		if err := db.Exec(index.statement).Error; err != nil {
			return fmt.Errorf("failed to enforce course keys: %w", err)
		}
	}

	if len(skipped) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateCourseKeys, strings.Join(skipped, "; "))
	}
	return nil
}
