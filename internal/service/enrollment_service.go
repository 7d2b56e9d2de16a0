package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/events"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

// EnrollmentService serves the student-facing course workflows. Students are
// resolved by their 9-digit id on every call.
type EnrollmentService interface {
	StudentProfile(ctx context.Context, username string) (dto.StudentResponse, error)
	ListForStudent(ctx context.Context, username string) ([]dto.StudentCourseResponse, error)
	Enroll(ctx context.Context, courseID uint, username string) error
	AvailableCourses(ctx context.Context, identity dto.Identity) ([]dto.CourseResponse, error)
	CourseDetail(ctx context.Context, id uint) (dto.CourseDetailResponse, error)
}

type enrollmentService struct {
	repos      repository.Repositories
	transactor repository.Transactor
	publisher  events.Publisher
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repos repository.Repositories, transactor repository.Transactor, publisher events.Publisher, logger zerolog.Logger) EnrollmentService {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}

	return &enrollmentService{
		repos:      repos,
		transactor: transactor,
		publisher:  publisher,
		logger:     logger.With().Str("component", "enrollment_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/gema-lms-api/internal/service/enrollment"),
		now:        time.Now,
	}
}

func (s *enrollmentService) StudentProfile(ctx context.Context, username string) (dto.StudentResponse, error) {
	student, err := s.findStudent(ctx, s.repos, username)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

// ListForStudent returns the student's courses with display grades. An
// unknown student has no courses.
func (s *enrollmentService) ListForStudent(ctx context.Context, username string) ([]dto.StudentCourseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "enrollments.list_for_student")
	defer span.End()

	student, err := s.findStudent(ctx, s.repos, username)
	if err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			s.logger.Info().Str("username", username).Msg("no student record for user")
			return []dto.StudentCourseResponse{}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		return nil, err
	}

	enrollments, err := s.repos.Enrollments.ListByStudent(ctx, student.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrollment_list_failed")
		return nil, err
	}

	courses := make([]dto.StudentCourseResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		courses = append(courses, dto.StudentCourseResponse{
			CourseResponse: dto.NewCourseResponse(enrollment.Course),
			Grade:          enrollment.DisplayGrade(),
		})
	}

	span.SetAttributes(attribute.Int("enrollments.count", len(courses)))
	return courses, nil
}

// Enroll adds the student to the course. Enrolling twice is a no-op.
func (s *enrollmentService) Enroll(ctx context.Context, courseID uint, username string) error {
	ctx, span := s.tracer.Start(ctx, "enrollments.enroll")
	span.SetAttributes(attribute.Int64("course.id", int64(courseID)))
	defer span.End()

	var (
		student  models.Student
		inserted bool
	)
	err := s.transactor.WithinTransaction(ctx, func(repos repository.Repositories) error {
		exists, err := repos.Courses.ExistsByID(ctx, courseID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrCourseNotFound
		}

		student, err = s.findStudent(ctx, repos, username)
		if err != nil {
			return err
		}

		inserted, err = repos.Enrollments.Enroll(ctx, courseID, student.ID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enroll_failed")
		s.logger.Warn().Err(err).Uint("course_id", courseID).Str("username", username).Msg("enrollment failed")
		return err
	}

	span.SetAttributes(attribute.Bool("enrollment.inserted", inserted))
	if !inserted {
		return nil
	}

	s.logger.Info().Uint("course_id", courseID).Uint("student_id", student.ID).Msg("student enrolled")
	event := events.Event{
		Type:       events.TypeEnrollmentCreated,
		CourseID:   courseID,
		StudentID:  student.ID,
		Actor:      username,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", event.Type).Msg("failed to publish event")
	}

	return nil
}

// AvailableCourses lists every course for administrators and the courses a
// student has not joined yet for everyone else.
func (s *enrollmentService) AvailableCourses(ctx context.Context, identity dto.Identity) ([]dto.CourseResponse, error) {
	if identity.IsAdmin() {
		courses, err := s.repos.Courses.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		return dto.NewCourseResponses(courses), nil
	}

	student, err := s.findStudent(ctx, s.repos, identity.Username)
	if err != nil {
		if !errors.Is(err, ErrStudentNotFound) {
			return nil, err
		}
		courses, err := s.repos.Courses.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		return dto.NewCourseResponses(courses), nil
	}

	courses, err := s.repos.Courses.FindNotEnrolled(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponses(courses), nil
}

func (s *enrollmentService) CourseDetail(ctx context.Context, id uint) (dto.CourseDetailResponse, error) {
	course, err := s.repos.Courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseDetailResponse{}, ErrCourseNotFound
		}
		return dto.CourseDetailResponse{}, err
	}

	count, err := s.repos.Enrollments.CountByCourse(ctx, id)
	if err != nil {
		return dto.CourseDetailResponse{}, err
	}

	return dto.CourseDetailResponse{CourseResponse: dto.NewCourseResponse(course), EnrolledCount: count}, nil
}

func (s *enrollmentService) findStudent(ctx context.Context, repos repository.Repositories, username string) (models.Student, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Student{}, ErrStudentNotFound
	}

	student, err := repos.Students.FindByStudentID(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}
	return student, nil
}
