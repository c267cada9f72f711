package repository_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/hostelhq/hostelhq-backend/internal/visitors/repository"
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

func TestVisitorRepository_CheckInAndOut(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewVisitorRepository(suite.DB)

	student := suite.Fixtures.Student()
	testutil.InsertStudent(t, ctx, suite.RawDB, student)

	relation := "Parent"
	visitor := &repository.Visitor{
		StudentID:   student.ID,
		VisitorName: "Ramesh Kumar",
		Relation:    &relation,
	}
	require.NoError(t, repo.CheckIn(ctx, visitor))
	assert.NotEmpty(t, visitor.ID)
	assert.Equal(t, repository.StatusIn, visitor.Status)
	assert.False(t, visitor.CheckInTime.IsZero())

	checkedOut, err := repo.CheckOut(ctx, visitor.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusOut, checkedOut.Status)
	require.NotNil(t, checkedOut.CheckOutTime)

	// Checking out twice is a conflict
	_, err = repo.CheckOut(ctx, visitor.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestVisitorRepository_CheckOut_NotFound(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewVisitorRepository(suite.DB)

	_, err := repo.CheckOut(ctx, "00000000-0000-0000-0000-000000000077")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestVisitorRepository_List(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewVisitorRepository(suite.DB)

	studentA := suite.Fixtures.Student()
	studentB := suite.Fixtures.Student()
	testutil.InsertStudent(t, ctx, suite.RawDB, studentA)
	testutil.InsertStudent(t, ctx, suite.RawDB, studentB)

	first := &repository.Visitor{StudentID: studentA.ID, VisitorName: "Visitor One"}
	second := &repository.Visitor{StudentID: studentB.ID, VisitorName: "Visitor Two"}
	require.NoError(t, repo.CheckIn(ctx, first))
	require.NoError(t, repo.CheckIn(ctx, second))

	_, err := repo.CheckOut(ctx, second.ID)
	require.NoError(t, err)

	all, err := repo.List(ctx, repository.VisitorListParams{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byStudent, err := repo.List(ctx, repository.VisitorListParams{StudentID: &studentA.ID})
	require.NoError(t, err)
	require.Len(t, byStudent, 1)
	assert.Equal(t, first.ID, byStudent[0].ID)

	in := repository.StatusIn
	open, err := repo.List(ctx, repository.VisitorListParams{Status: &in})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, first.ID, open[0].ID)
}
