package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles repositories bound to the same database handle.
type Repositories struct {
	Courses     CourseRepository
	Students    StudentRepository
	Enrollments EnrollmentRepository
	Users       UserRepository
}

// NewRepositories binds every repository to db.
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Courses:     NewCourseRepository(db),
		Students:    NewStudentRepository(db),
		Enrollments: NewEnrollmentRepository(db),
		Users:       NewUserRepository(db),
	}
}

// Transactor runs a unit of work inside a single database transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor constructs a transactor over db.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise.
// fn must only use the repositories it receives.
func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
