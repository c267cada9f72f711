package repository_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/hostelhq/hostelhq-backend/internal/directory/repository"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
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

func TestStudentRepository_Create_DuplicateEmail(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewStudentRepository(suite.DB)

	first := &repository.Student{
		FullName: "Asha Verma",
		Email:    "asha@test.hostelhq.io",
	}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEmpty(t, first.ID)

	dup := &repository.Student{
		FullName: "Another Asha",
		Email:    "asha@test.hostelhq.io",
	}
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestStudentRepository_ListUnallocated(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewStudentRepository(suite.DB)

	allocated := suite.Fixtures.Student()
	unallocated := suite.Fixtures.Student()
	previouslyAllocated := suite.Fixtures.Student()
	testutil.InsertStudent(t, ctx, suite.RawDB, allocated)
	testutil.InsertStudent(t, ctx, suite.RawDB, unallocated)
	testutil.InsertStudent(t, ctx, suite.RawDB, previouslyAllocated)

	room := suite.Fixtures.Room()
	testutil.InsertRoom(t, ctx, suite.RawDB, room)

	_, err := suite.RawDB.ExecContext(ctx,
		`INSERT INTO room_allocations (student_id, room_id, is_active) VALUES ($1, $2, true)`,
		allocated.ID, room.ID)
	require.NoError(t, err)

	// A closed allocation does not count
	_, err = suite.RawDB.ExecContext(ctx,
		`INSERT INTO room_allocations (student_id, room_id, is_active, end_date)
		 VALUES ($1, $2, false, NOW())`,
		previouslyAllocated.ID, room.ID)
	require.NoError(t, err)

	students, err := repo.ListUnallocated(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	assert.Contains(t, ids, unallocated.ID)
	assert.Contains(t, ids, previouslyAllocated.ID)
	assert.NotContains(t, ids, allocated.ID)
}

func TestProfileRepository_Create_Idempotent(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewProfileRepository(suite.DB)

	fixture := suite.Fixtures.Profile()
	profile := &repository.Profile{
		ID:       fixture.ID,
		FullName: fixture.FullName,
		Role:     fixture.Role,
		Email:    fixture.Email,
	}

	inserted, err := repo.Create(ctx, profile)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Re-inserting the same ID is a no-op, not an error
	inserted, err = repo.Create(ctx, profile)
	require.NoError(t, err)
	assert.False(t, inserted)
}
