package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// legacyCourseID is removed on every startup reconciliation when enabled.
const legacyCourseID = 1

// CourseRepository provides access to course records.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id uint) (models.Course, error)
	FindByCode(ctx context.Context, code string) (models.Course, error)
	FindAll(ctx context.Context) ([]models.Course, error)
	FindByNameOrderByIDAsc(ctx context.Context, name string) ([]models.Course, error)
	FindDuplicateNames(ctx context.Context) ([]string, error)
	FindNotEnrolled(ctx context.Context, studentID uint) ([]models.Course, error)
	ExistsByID(ctx context.Context, id uint) (bool, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Count(ctx context.Context) (int64, error)
	DeleteByID(ctx context.Context, id uint) (int64, error)
	DeleteLegacyCourse(ctx context.Context) (int64, error)
	CompactIDs(ctx context.Context) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Model(&models.Course{}).
		Where("id = ?", course.ID).
		Updates(map[string]interface{}{
			"name":        course.Name,
			"professor":   course.Professor,
			"code":        course.Code,
			"description": course.Description,
		}).Error
}

func (r *courseRepository) FindByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) FindByCode(ctx context.Context, code string) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&course).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) FindAll(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) FindByNameOrderByIDAsc(ctx context.Context, name string) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).Where("name = ?", name).Order("id ASC").Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) FindDuplicateNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&models.Course{}).
		Select("name").
		Group("name").
		Having("COUNT(*) > 1").
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}

	return names, nil
}

func (r *courseRepository) FindNotEnrolled(ctx context.Context, studentID uint) ([]models.Course, error) {
	db := r.db.WithContext(ctx)
	enrolled := db.Model(&models.Enrollment{}).Select("course_id").Where("student_id = ?", studentID)

	var courses []models.Course
	if err := db.Where("id NOT IN (?)", enrolled).Order("id ASC").Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, "id = ?", id)
}

func (r *courseRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	return r.exists(ctx, "name = ?", name)
}

func (r *courseRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, "code = ?", code)
}

func (r *courseRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Course{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *courseRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Course{}).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteByID removes the course together with its enrollments and grades.
// Callers wanting atomicity should run it inside a transaction.
func (r *courseRepository) DeleteByID(ctx context.Context, id uint) (int64, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("course_id = ?", id).Delete(&models.Enrollment{}).Error; err != nil {
		return 0, err
	}

	result := db.Delete(&models.Course{}, id)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (r *courseRepository) DeleteLegacyCourse(ctx context.Context) (int64, error) {
	return r.DeleteByID(ctx, legacyCourseID)
}

// CompactIDs renumbers courses to 1..N in ascending order of their current id
// and moves enrollments along with them. Every target id is lower than the
// source id and already vacated, so rows never collide.
func (r *courseRepository) CompactIDs(ctx context.Context) error {
	db := r.db.WithContext(ctx)

	var ids []uint
	if err := db.Model(&models.Course{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return err
	}

	for i, current := range ids {
		next := uint(i + 1)
		if current == next {
			continue
		}

		if err := db.Exec("UPDATE courses SET id = ? WHERE id = ?", next, current).Error; err != nil {
			return err
		}
		if err := db.Exec("UPDATE enrollments SET course_id = ? WHERE course_id = ?", next, current).Error; err != nil {
			return err
		}
	}

	return nil
}
