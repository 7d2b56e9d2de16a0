package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/database"
	"github.com/noah-isme/gema-lms-api/internal/models"
)

func TestSeedServiceReconcileCleansLegacyData(t *testing.T) {
	env := newTestEnvFor(openTestDB(t))
	ctx := context.Background()

	legacy := env.createCourse(t, "Legacy Course", "00000001")
	require.Equal(t, uint(1), legacy.ID)
	kept := env.createCourse(t, "Algebra", "11111111")
	duplicate := env.createCourse(t, "Algebra", "11111112")
	env.createCourse(t, "Digital Systems", "99999999")

	student := env.createStudent(t, "123456789")
	env.enroll(t, duplicate.ID, student.ID)

	svc := NewSeedService(env.transactor, SeedOptions{Catalogue: DefaultCourses(), PurgeLegacyCourse: true}, testLogger())
	summary, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.DuplicatesRemoved)
	require.True(t, summary.LegacyRemoved)
	require.Equal(t, []string{"10204011", "10202011"}, summary.Seeded)
	require.Equal(t, []string{"10203012"}, summary.Skipped)

	algebra, err := env.repos.Courses.FindByNameOrderByIDAsc(ctx, "Algebra")
	require.NoError(t, err)
	require.Len(t, algebra, 1)
	require.Equal(t, kept.ID, algebra[0].ID)

	exists, err := env.repos.Courses.ExistsByID(ctx, legacy.ID)
	require.NoError(t, err)
	require.False(t, exists)

	count, err := env.repos.Enrollments.CountByCourse(ctx, duplicate.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, database.EnforceCourseKeys(env.db))
}

func TestSeedServiceReconcileIsIdempotent(t *testing.T) {
	env := newTestEnvFor(openTestDB(t))
	ctx := context.Background()
	svc := NewSeedService(env.transactor, SeedOptions{Catalogue: DefaultCourses(), PurgeLegacyCourse: true}, testLogger())

	first, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, first.Seeded, 3)
	require.False(t, first.LegacyRemoved)

	// The first seeded course landed on id 1, so the second pass purges it and
	// seeds it again under a new id.
	second, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Zero(t, second.DuplicatesRemoved)
	require.True(t, second.LegacyRemoved)
	require.Equal(t, []string{"10204011"}, second.Seeded)

	total, err := env.repos.Courses.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
}

func TestSeedServiceKeepsLegacyCourseWhenPurgeDisabled(t *testing.T) {
	env := newTestEnvFor(openTestDB(t))
	ctx := context.Background()
	env.createCourse(t, "Legacy Course", "00000001")

	svc := NewSeedService(env.transactor, SeedOptions{Catalogue: DefaultCourses()}, testLogger())
	summary, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.False(t, summary.LegacyRemoved)
	require.Len(t, summary.Seeded, 3)

	again, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Empty(t, again.Seeded)
	require.Len(t, again.Skipped, 3)

	total, err := env.repos.Courses.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
}

func TestSeedServiceSkipsCatalogueEntryWhenCodeTaken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createCourse(t, "Renamed Intro", "10204011")

	catalogue := []models.Course{DefaultCourses()[0]}
	svc := NewSeedService(env.transactor, SeedOptions{Catalogue: catalogue}, testLogger())
	summary, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Empty(t, summary.Seeded)
	require.Equal(t, []string{"10204011"}, summary.Skipped)
}
