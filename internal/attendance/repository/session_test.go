package repository_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/hostelhq/hostelhq-backend/internal/attendance/repository"
	"github.com/hostelhq/hostelhq-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

func sessionDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func countSessions(t *testing.T, ctx context.Context) int {
	t.Helper()
	var count int
	err := suite.RawDB.GetContext(ctx, &count, `SELECT COUNT(*) FROM attendance_sessions`)
	require.NoError(t, err)
	return count
}

func TestSessionRepository_GetOrCreate_Idempotent(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewSessionRepository(suite.DB)

	course := "BSc Computer Science"
	year := 2
	key := repository.SessionKey{
		SessionDate: sessionDate(2026, time.March, 10),
		SessionType: "Morning",
		Course:      &course,
		YearOfStudy: &year,
	}

	first, created, err := repo.GetOrCreate(ctx, key)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)

	// Same key resolves to the same session, no second row
	second, created, err := repo.GetOrCreate(ctx, key)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, countSessions(t, ctx))
}

func TestSessionRepository_GetOrCreate_NullFiltersAreDistinctKeys(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewSessionRepository(suite.DB)

	date := sessionDate(2026, time.March, 11)
	course := "BSc Computer Science"

	plain, created, err := repo.GetOrCreate(ctx, repository.SessionKey{
		SessionDate: date,
		SessionType: "Morning",
	})
	require.NoError(t, err)
	assert.True(t, created)

	scoped, created, err := repo.GetOrCreate(ctx, repository.SessionKey{
		SessionDate: date,
		SessionType: "Morning",
		Course:      &course,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, plain.ID, scoped.ID)

	// Nil filters hit the same nil-keyed session again
	plainAgain, created, err := repo.GetOrCreate(ctx, repository.SessionKey{
		SessionDate: date,
		SessionType: "Morning",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, plain.ID, plainAgain.ID)
	assert.Equal(t, 2, countSessions(t, ctx))
}

func TestRecordRepository_BulkUpsert_InsertThenOverwrite(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	sessions := repository.NewSessionRepository(suite.DB)
	records := repository.NewRecordRepository(suite.DB)

	student := suite.Fixtures.Student()
	testutil.InsertStudent(t, ctx, suite.RawDB, student)

	session, _, err := sessions.GetOrCreate(ctx, repository.SessionKey{
		SessionDate: sessionDate(2026, time.March, 12),
		SessionType: "Morning",
	})
	require.NoError(t, err)

	staff := suite.Fixtures.Profile(testutil.WithRole("Staff"))
	testutil.InsertProfile(t, ctx, suite.RawDB, staff)

	inserted, err := records.BulkUpsert(ctx, session.ID, []repository.MarkEntry{
		{StudentID: student.ID, Status: repository.StatusAbsent},
	}, staff.ID)
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, repository.StatusAbsent, inserted[0].Status)

	// Re-marking overwrites in place, still one row per (session, student)
	note := "arrived after roll call"
	updated, err := records.BulkUpsert(ctx, session.ID, []repository.MarkEntry{
		{StudentID: student.ID, Status: repository.StatusLate, LateMinutes: 15, Note: &note},
	}, staff.ID)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, inserted[0].ID, updated[0].ID)
	assert.Equal(t, repository.StatusLate, updated[0].Status)
	assert.Equal(t, 15, updated[0].LateMinutes)
	require.NotNil(t, updated[0].Note)
	assert.Equal(t, note, *updated[0].Note)

	var count int
	err = suite.RawDB.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM attendance_records WHERE session_id = $1 AND student_id = $2`,
		session.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordRepository_BulkUpsert_BadEntryAbortsBatch(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	sessions := repository.NewSessionRepository(suite.DB)
	records := repository.NewRecordRepository(suite.DB)

	studentA := suite.Fixtures.Student()
	testutil.InsertStudent(t, ctx, suite.RawDB, studentA)

	session, _, err := sessions.GetOrCreate(ctx, repository.SessionKey{
		SessionDate: sessionDate(2026, time.March, 13),
		SessionType: "Evening",
	})
	require.NoError(t, err)

	// Second entry references a missing student, the whole batch rolls back
	_, err = records.BulkUpsert(ctx, session.ID, []repository.MarkEntry{
		{StudentID: studentA.ID, Status: repository.StatusPresent},
		{StudentID: "00000000-0000-0000-0000-000000000042", Status: repository.StatusPresent},
	}, "")
	require.Error(t, err)

	var count int
	err = suite.RawDB.GetContext(ctx, &count, `SELECT COUNT(*) FROM attendance_records`)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRecordRepository_Calendar(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	sessions := repository.NewSessionRepository(suite.DB)
	records := repository.NewRecordRepository(suite.DB)

	student := suite.Fixtures.Student()
	testutil.InsertStudent(t, ctx, suite.RawDB, student)

	markDay := func(day int, status string) {
		session, _, err := sessions.GetOrCreate(ctx, repository.SessionKey{
			SessionDate: sessionDate(2026, time.February, day),
			SessionType: "Morning",
		})
		require.NoError(t, err)
		_, err = records.BulkUpsert(ctx, session.ID, []repository.MarkEntry{
			{StudentID: student.ID, Status: status},
		}, "")
		require.NoError(t, err)
	}

	markDay(2, repository.StatusPresent)
	markDay(3, repository.StatusAbsent)
	markDay(15, repository.StatusLate)

	days, err := records.Calendar(ctx, student.ID, time.February, 2026)
	require.NoError(t, err)

	// February 2026 has 28 days, every day reported ascending
	require.Len(t, days, 28)
	for i, day := range days {
		assert.Equal(t, i+1, day.Date.Day())
	}

	assert.Equal(t, repository.StatusUnmarked, days[0].Status)
	assert.Equal(t, repository.StatusPresent, days[1].Status)
	assert.Equal(t, repository.StatusAbsent, days[2].Status)
	assert.Equal(t, repository.StatusLate, days[14].Status)
	assert.Equal(t, repository.StatusUnmarked, days[27].Status)
}

func TestLeaveRepository_Lifecycle(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewLeaveRepository(suite.DB)

	student := suite.Fixtures.Student()
	testutil.InsertStudent(t, ctx, suite.RawDB, student)

	staff := suite.Fixtures.Profile(testutil.WithRole("Staff"))
	testutil.InsertProfile(t, ctx, suite.RawDB, staff)

	reason := "family visit"
	leave := &repository.Leave{
		StudentID: student.ID,
		StartDate: sessionDate(2026, time.April, 1),
		EndDate:   sessionDate(2026, time.April, 3),
		Reason:    &reason,
	}
	require.NoError(t, repo.Create(ctx, leave))
	assert.Equal(t, repository.LeaveStatusPending, leave.Status)

	reviewed, err := repo.Review(ctx, leave.ID, repository.LeaveStatusApproved, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.LeaveStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ApprovedBy)
	assert.Equal(t, staff.ID, *reviewed.ApprovedBy)

	// A settled leave cannot be reviewed again
	_, err = repo.Review(ctx, leave.ID, repository.LeaveStatusRejected, staff.ID)
	require.Error(t, err)
}
