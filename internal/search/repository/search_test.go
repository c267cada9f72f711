package repository_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/hostelhq/hostelhq-backend/internal/search/repository"
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

func TestSearchRepository_MatchesRoomNumber(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewSearchRepository(suite.DB)

	room := suite.Fixtures.Room(testutil.WithRoomNumber("101"))
	testutil.InsertRoom(t, ctx, suite.RawDB, room)

	student := suite.Fixtures.Student(testutil.WithStudentName("Priya Sharma"))
	testutil.InsertStudent(t, ctx, suite.RawDB, student)

	results, err := repo.Search(ctx, "101")
	require.NoError(t, err)

	require.Len(t, results.Rooms, 1)
	assert.Equal(t, room.ID, results.Rooms[0].ID)
	assert.Equal(t, "Room 101", results.Rooms[0].Label)
	assert.Equal(t, "/rooms/"+room.ID, results.Rooms[0].Path)

	assert.Empty(t, results.Students)
}

func TestSearchRepository_MatchesStudentNameAndEmail(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewSearchRepository(suite.DB)

	student := suite.Fixtures.Student(testutil.WithStudentName("Priya Sharma"))
	testutil.InsertStudent(t, ctx, suite.RawDB, student)

	// Case-insensitive substring match on the name
	results, err := repo.Search(ctx, "priya")
	require.NoError(t, err)
	require.Len(t, results.Students, 1)
	assert.Equal(t, student.ID, results.Students[0].ID)
	assert.Equal(t, "Priya Sharma", results.Students[0].Label)
	assert.Equal(t, "/students/"+student.ID, results.Students[0].Path)

	// Match on the email too
	results, err = repo.Search(ctx, student.Email)
	require.NoError(t, err)
	require.Len(t, results.Students, 1)
	assert.Equal(t, student.ID, results.Students[0].ID)
}

func TestSearchRepository_CapsHitsPerType(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewSearchRepository(suite.DB)

	for i := 0; i < 7; i++ {
		student := suite.Fixtures.Student(testutil.WithStudentName(fmt.Sprintf("Common Name %d", i)))
		testutil.InsertStudent(t, ctx, suite.RawDB, student)
	}

	results, err := repo.Search(ctx, "Common Name")
	require.NoError(t, err)
	assert.Len(t, results.Students, 5)
}

func TestSearchRepository_NoMatches(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewSearchRepository(suite.DB)

	results, err := repo.Search(ctx, "nothing-matches-this")
	require.NoError(t, err)
	assert.Empty(t, results.Students)
	assert.Empty(t, results.Rooms)
}
