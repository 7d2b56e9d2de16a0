package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
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

// CourseService implements the administrator course workflows.
type CourseService interface {
	Dashboard(ctx context.Context) (dto.DashboardResponse, error)
	List(ctx context.Context) ([]dto.CourseResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Save(ctx context.Context, form dto.CourseForm, actor ActivityActor) (dto.CourseResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
	ListStudents(ctx context.Context) ([]dto.StudentResponse, error)
	ListCourseStudents(ctx context.Context, courseID uint) (dto.CourseResponse, []dto.CourseStudentResponse, error)
	RemoveStudent(ctx context.Context, courseID, studentID uint, actor ActivityActor) error
	AssignGrade(ctx context.Context, courseID, studentID uint, req dto.GradeRequest, actor ActivityActor) error
}

// CourseOptions tunes course maintenance behaviour.
type CourseOptions struct {
	// CompactIDs renumbers courses to 1..N after every delete.
	CompactIDs bool
}

type courseService struct {
	repos      repository.Repositories
	transactor repository.Transactor
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	publisher  events.Publisher
	activity   ActivityRecorder
	options    CourseOptions
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewCourseService constructs the course service.
func NewCourseService(
	repos repository.Repositories,
	transactor repository.Transactor,
	validate *validator.Validate,
	publisher events.Publisher,
	activity ActivityRecorder,
	options CourseOptions,
	logger zerolog.Logger,
) CourseService {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}

	return &courseService{
		repos:      repos,
		transactor: transactor,
		validator:  validate,
		sanitizer:  bluemonday.UGCPolicy(),
		publisher:  publisher,
		activity:   activity,
		options:    options,
		logger:     logger.With().Str("component", "course_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/gema-lms-api/internal/service/course"),
		now:        time.Now,
	}
}

func (s *courseService) Dashboard(ctx context.Context) (dto.DashboardResponse, error) {
	courses, err := s.repos.Courses.Count(ctx)
	if err != nil {
		return dto.DashboardResponse{}, fmt.Errorf("count courses: %w", err)
	}

	students, err := s.repos.Students.Count(ctx)
	if err != nil {
		return dto.DashboardResponse{}, fmt.Errorf("count students: %w", err)
	}

	return dto.DashboardResponse{Courses: courses, Students: students}, nil
}

func (s *courseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repos.Courses.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponses(courses), nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.repos.Courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

// Save creates or edits a course. An explicit id wins; otherwise a course
// sharing the submitted code is updated in place so its enrollments survive.
func (s *courseService) Save(ctx context.Context, form dto.CourseForm, actor ActivityActor) (dto.CourseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "courses.save")
	defer span.End()

	form = form.Normalize()
	if err := s.validator.Struct(form); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.CourseResponse{}, newValidationError(err, courseFieldMessage)
	}

	course := models.Course{
		Name:        form.Name,
		Professor:   form.Professor,
		Code:        form.Code,
		Description: strings.TrimSpace(s.sanitizer.Sanitize(form.Description)),
	}
	if course.Description == "" {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.CourseResponse{}, &ValidationError{Fields: map[string]string{"description": courseFieldMessage("description", "required", "")}}
	}

	created := false
	err := s.transactor.WithinTransaction(ctx, func(repos repository.Repositories) error {
		var target uint
		if form.ID != 0 {
			exists, err := repos.Courses.ExistsByID(ctx, form.ID)
			if err != nil {
				return err
			}
			if exists {
				target = form.ID
			}
		}

		byCode, err := repos.Courses.FindByCode(ctx, course.Code)
		switch {
		case err == nil && target == 0:
			target = byCode.ID
		case err == nil && byCode.ID != target:
			return ErrCourseConflict
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		sameName, err := repos.Courses.FindByNameOrderByIDAsc(ctx, course.Name)
		if err != nil {
			return err
		}
		for _, other := range sameName {
			if other.ID != target {
				return ErrCourseConflict
			}
		}

		if target != 0 {
			course.ID = target
			return repos.Courses.Update(ctx, &course)
		}

		created = true
		return repos.Courses.Create(ctx, &course)
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrCourseConflict) || errors.Is(err, gorm.ErrDuplicatedKey) {
			span.SetStatus(codes.Error, "course_conflict")
			return dto.CourseResponse{}, ErrCourseConflict
		}
		span.SetStatus(codes.Error, "course_save_failed")
		return dto.CourseResponse{}, fmt.Errorf("save course: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("course.id", int64(course.ID)),
		attribute.Bool("course.created", created),
	)
	s.logger.Info().Uint("course_id", course.ID).Str("code", course.Code).Bool("created", created).Msg("course saved")

	s.publish(ctx, events.Event{Type: events.TypeCourseSaved, CourseID: course.ID, Actor: actor.Username})
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionCourseSaved,
		EntityType: "course",
		EntityID:   &course.ID,
		Metadata: map[string]interface{}{
			"code":    course.Code,
			"name":    course.Name,
			"created": created,
		},
	})

	return dto.NewCourseResponse(course), nil
}

// Delete removes the course with its enrollments and, when enabled, compacts
// the remaining ids in the same transaction.
func (s *courseService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	ctx, span := s.tracer.Start(ctx, "courses.delete")
	span.SetAttributes(attribute.Int64("course.id", int64(id)))
	defer span.End()

	err := s.transactor.WithinTransaction(ctx, func(repos repository.Repositories) error {
		affected, err := repos.Courses.DeleteByID(ctx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrCourseNotFound
		}

		if s.options.CompactIDs {
			if err := repos.Courses.CompactIDs(ctx); err != nil {
				return fmt.Errorf("compact course ids: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_delete_failed")
		return err
	}

	s.logger.Info().Uint("course_id", id).Bool("compacted", s.options.CompactIDs).Msg("course deleted")

	s.publish(ctx, events.Event{Type: events.TypeCourseDeleted, CourseID: id, Actor: actor.Username})
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionCourseDeleted,
		EntityType: "course",
		EntityID:   &id,
	})

	return nil
}

func (s *courseService) ListStudents(ctx context.Context) ([]dto.StudentResponse, error) {
	students, err := s.repos.Students.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, dto.NewStudentResponse(student))
	}
	return responses, nil
}

func (s *courseService) ListCourseStudents(ctx context.Context, courseID uint) (dto.CourseResponse, []dto.CourseStudentResponse, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return dto.CourseResponse{}, nil, err
	}

	enrollments, err := s.repos.Enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.CourseResponse{}, nil, err
	}

	students := make([]dto.CourseStudentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		students = append(students, dto.CourseStudentResponse{
			StudentResponse: dto.NewStudentResponse(enrollment.Student),
			Grade:           enrollment.DisplayGrade(),
		})
	}
	return course, students, nil
}

// RemoveStudent drops the membership row, and with it the grade. Removing a
// student who is not enrolled succeeds without changes.
func (s *courseService) RemoveStudent(ctx context.Context, courseID, studentID uint, actor ActivityActor) error {
	ctx, span := s.tracer.Start(ctx, "courses.remove_student")
	span.SetAttributes(
		attribute.Int64("course.id", int64(courseID)),
		attribute.Int64("student.id", int64(studentID)),
	)
	defer span.End()

	var removed int64
	err := s.transactor.WithinTransaction(ctx, func(repos repository.Repositories) error {
		exists, err := repos.Courses.ExistsByID(ctx, courseID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrCourseNotFound
		}

		removed, err = repos.Enrollments.Remove(ctx, courseID, studentID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remove_student_failed")
		return err
	}

	span.SetAttributes(attribute.Int64("enrollment.rows_affected", removed))
	if removed == 0 {
		s.logger.Info().Uint("course_id", courseID).Uint("student_id", studentID).Msg("student was not enrolled")
		return nil
	}

	s.publish(ctx, events.Event{Type: events.TypeEnrollmentRemoved, CourseID: courseID, StudentID: studentID, Actor: actor.Username})
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionStudentRemoved,
		EntityType: "course",
		EntityID:   &courseID,
		Metadata:   map[string]interface{}{"student_id": studentID},
	})

	return nil
}

// AssignGrade writes the grade for the pair. Membership is not checked: for a
// student outside the course the update matches no row and nothing changes.
func (s *courseService) AssignGrade(ctx context.Context, courseID, studentID uint, req dto.GradeRequest, actor ActivityActor) error {
	ctx, span := s.tracer.Start(ctx, "courses.assign_grade")
	span.SetAttributes(
		attribute.Int64("course.id", int64(courseID)),
		attribute.Int64("student.id", int64(studentID)),
	)
	defer span.End()

	req.Grade = strings.TrimSpace(req.Grade)
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return newValidationError(err, gradeFieldMessage)
	}

	var affected int64
	err := s.transactor.WithinTransaction(ctx, func(repos repository.Repositories) error {
		exists, err := repos.Courses.ExistsByID(ctx, courseID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrCourseNotFound
		}

		exists, err = repos.Students.ExistsByID(ctx, studentID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrStudentNotFound
		}

		affected, err = repos.Enrollments.UpdateGrade(ctx, courseID, studentID, req.Grade)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assign_grade_failed")
		return err
	}

	span.SetAttributes(attribute.Int64("enrollment.rows_affected", affected))
	if affected == 0 {
		s.logger.Warn().
			Uint("course_id", courseID).
			Uint("student_id", studentID).
			Int64("rows_affected", affected).
			Msg("grade assigned to a student outside the course")
		return nil
	}

	grade := req.Grade
	s.publish(ctx, events.Event{Type: events.TypeGradeAssigned, CourseID: courseID, StudentID: studentID, Grade: &grade, Actor: actor.Username})
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionGradeAssigned,
		EntityType: "course",
		EntityID:   &courseID,
		Metadata:   map[string]interface{}{"student_id": studentID, "grade": grade},
	})

	return nil
}

func (s *courseService) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", event.Type).Uint("course_id", event.CourseID).Msg("failed to publish event")
	}
}
