package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

// DefaultCourses is the catalogue seeded on every startup.
func DefaultCourses() []models.Course {
	return []models.Course{
		{
			Name:        "Introduction to Computer Science",
			Professor:   "Dr. Yoram Biberman",
			Code:        "10204011",
			Description: "In this course, we will get to know the basics of programming...",
		},
		{
			Name:        "Digital Systems",
			Professor:   "Dr. Simcha Rozen",
			Code:        "10203012",
			Description: "How is data stored on a computer?...",
		},
		{
			Name:        "Discrete Mathematics",
			Professor:   "Dr. Eran London",
			Code:        "10202011",
			Description: "The course begins with the fundamentals of the language of mathematics...",
		},
	}
}

// SeedService reconciles course data before the server accepts traffic.
type SeedService interface {
	Reconcile(ctx context.Context) (dto.ReconcileSummary, error)
}

// SeedOptions configures startup reconciliation.
type SeedOptions struct {
	Catalogue []models.Course
	// PurgeLegacyCourse deletes the course with id 1 before seeding.
	PurgeLegacyCourse bool
}

type seedService struct {
	transactor repository.Transactor
	options    SeedOptions
	logger     zerolog.Logger
}

// NewSeedService constructs the startup reconciliation service.
func NewSeedService(transactor repository.Transactor, options SeedOptions, logger zerolog.Logger) SeedService {
	return &seedService{
		transactor: transactor,
		options:    options,
		logger:     logger.With().Str("component", "seed_service").Logger(),
	}
}

// Reconcile removes duplicate course names keeping the lowest id, optionally
// purges the legacy course, and seeds the catalogue entries whose name and
// code are both unused. Everything runs in one transaction.
func (s *seedService) Reconcile(ctx context.Context) (dto.ReconcileSummary, error) {
	ctx, span := otel.Tracer("github.com/noah-isme/gema-lms-api/internal/service/seed").Start(ctx, "courses.reconcile")
	defer span.End()

	summary := dto.ReconcileSummary{Seeded: []string{}, Skipped: []string{}}
	err := s.transactor.WithinTransaction(ctx, func(repos repository.Repositories) error {
		removed, err := s.removeDuplicates(ctx, repos.Courses)
		if err != nil {
			return err
		}
		summary.DuplicatesRemoved = removed

		if s.options.PurgeLegacyCourse {
			affected, err := repos.Courses.DeleteLegacyCourse(ctx)
			if err != nil {
				return fmt.Errorf("delete legacy course: %w", err)
			}
			summary.LegacyRemoved = affected > 0
		}

		for _, course := range s.options.Catalogue {
			seeded, err := s.saveIfNotExists(ctx, repos.Courses, course)
			if err != nil {
				return err
			}
			if seeded {
				summary.Seeded = append(summary.Seeded, course.Code)
			} else {
				summary.Skipped = append(summary.Skipped, course.Code)
			}
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconcile_failed")
		return dto.ReconcileSummary{}, err
	}

	span.SetAttributes(
		attribute.Int("courses.duplicates_removed", summary.DuplicatesRemoved),
		attribute.Int("courses.seeded", len(summary.Seeded)),
	)
	s.logger.Info().
		Int("duplicates_removed", summary.DuplicatesRemoved).
		Bool("legacy_removed", summary.LegacyRemoved).
		Strs("seeded", summary.Seeded).
		Strs("skipped", summary.Skipped).
		Msg("course reconciliation complete")

	return summary, nil
}

func (s *seedService) removeDuplicates(ctx context.Context, courses repository.CourseRepository) (int, error) {
	names, err := courses.FindDuplicateNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("find duplicate course names: %w", err)
	}

	removed := 0
	for _, name := range names {
		duplicates, err := courses.FindByNameOrderByIDAsc(ctx, name)
		if err != nil {
			return removed, fmt.Errorf("load duplicates of %q: %w", name, err)
		}

		for _, duplicate := range duplicates[min(1, len(duplicates)):] {
			if _, err := courses.DeleteByID(ctx, duplicate.ID); err != nil {
				return removed, fmt.Errorf("delete duplicate course %d: %w", duplicate.ID, err)
			}
			removed++
			s.logger.Info().Str("name", name).Uint("course_id", duplicate.ID).Msg("deleted duplicate course")
		}
	}

	return removed, nil
}

func (s *seedService) saveIfNotExists(ctx context.Context, courses repository.CourseRepository, course models.Course) (bool, error) {
	exists, err := courses.ExistsByCode(ctx, course.Code)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Info().Str("code", course.Code).Msg("course with code already exists")
		return false, nil
	}

	exists, err = courses.ExistsByName(ctx, course.Name)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Info().Str("name", course.Name).Msg("course with name already exists")
		return false, nil
	}

	course.ID = 0
	if err := courses.Create(ctx, &course); err != nil {
		return false, fmt.Errorf("seed course %s: %w", course.Code, err)
	}
	s.logger.Info().Str("name", course.Name).Uint("course_id", course.ID).Msg("saved new course")

	return true, nil
}
