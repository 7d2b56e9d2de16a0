package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/database"
	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/events"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.Type)
	}
	return types
}

type testEnv struct {
	db         *gorm.DB
	repos      repository.Repositories
	transactor repository.Transactor
	publisher  *recordingPublisher
	activity   ActivityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, database.EnforceCourseKeys(db))
	return newTestEnvFor(db)
}

func newTestEnvFor(db *gorm.DB) *testEnv {
	return &testEnv{
		db:         db,
		repos:      repository.NewRepositories(db),
		transactor: repository.NewTransactor(db),
		publisher:  &recordingPublisher{},
		activity:   NewActivityService(repository.NewActivityLogRepository(db), testLogger()),
	}
}

// openTestDB returns a migrated in-memory database without the course key
// indexes.
func openTestDB(t *testing.T) *gorm.DB {
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

func (e *testEnv) courseService(compact bool) CourseService {
	return NewCourseService(e.repos, e.transactor, testValidator(), e.publisher, e.activity, CourseOptions{CompactIDs: compact}, testLogger())
}

func (e *testEnv) enrollmentService() EnrollmentService {
	return NewEnrollmentService(e.repos, e.transactor, e.publisher, testLogger())
}

func (e *testEnv) createCourse(t *testing.T, name, code string) models.Course {
	t.Helper()
	course := models.Course{Name: name, Professor: "Dr. Test", Code: code, Description: name + " description"}
	require.NoError(t, e.db.Create(&course).Error)
	return course
}

func (e *testEnv) createStudent(t *testing.T, studentID string) models.Student {
	t.Helper()
	student := models.Student{StudentID: studentID, StudentEmail: studentID + "@university.edu"}
	require.NoError(t, e.db.Create(&student).Error)
	return student
}

func (e *testEnv) enroll(t *testing.T, courseID, studentID uint) {
	t.Helper()
	_, err := e.repos.Enrollments.Enroll(context.Background(), courseID, studentID)
	require.NoError(t, err)
}

var testAdmin = ActivityActor{Username: "123456788", Role: "admin"}

func courseForm(name, code string) dto.CourseForm {
	return dto.CourseForm{Name: name, Professor: "Dr. Test", Code: code, Description: name + " description"}
}
