package repository_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/hostelhq/hostelhq-backend/internal/housing/repository"
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

func insertStudent(t *testing.T, ctx context.Context) testutil.StudentFixture {
	t.Helper()
	s := suite.Fixtures.Student()
	testutil.InsertStudent(t, ctx, suite.RawDB, s)
	return s
}

func insertRoom(t *testing.T, ctx context.Context, opts ...func(*testutil.RoomFixture)) testutil.RoomFixture {
	t.Helper()
	r := suite.Fixtures.Room(opts...)
	testutil.InsertRoom(t, ctx, suite.RawDB, r)
	return r
}

func TestAllocationRepository_Allocate_FillsRoomToCapacity(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewAllocationRepository(suite.DB)
	roomRepo := repository.NewRoomRepository(suite.DB)

	room := insertRoom(t, ctx, testutil.WithCapacity(2))
	studentA := insertStudent(t, ctx)
	studentB := insertStudent(t, ctx)
	studentC := insertStudent(t, ctx)

	// First allocation: one occupant in a capacity-2 room stays Vacant
	resultA, err := repo.Allocate(ctx, studentA.ID, room.ID)
	require.NoError(t, err)
	assert.True(t, resultA.Allocation.IsActive)
	assert.Equal(t, 1, resultA.Occupants)
	assert.Equal(t, repository.RoomStatusVacant, resultA.RoomStatus)

	// Second allocation fills the room, which becomes Occupied
	resultB, err := repo.Allocate(ctx, studentB.ID, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resultB.Occupants)
	assert.Equal(t, repository.RoomStatusOccupied, resultB.RoomStatus)

	// Third allocation must be rejected, leaving nothing behind
	_, err = repo.Allocate(ctx, studentC.ID, room.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCapacityExceeded))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CAPACITY_EXCEEDED", appErr.Code)

	updated, err := roomRepo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Occupants)

	_, err = repo.GetActiveByStudent(ctx, studentC.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestAllocationRepository_Allocate_SingleRoomOccupiedAtOne(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewAllocationRepository(suite.DB)
	roomRepo := repository.NewRoomRepository(suite.DB)

	room := insertRoom(t, ctx, testutil.WithCapacity(1))
	student := insertStudent(t, ctx)

	// A capacity-1 room is full after its only allocation
	result, err := repo.Allocate(ctx, student.ID, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Occupants)
	assert.Equal(t, repository.RoomStatusOccupied, result.RoomStatus)

	_, err = repo.Release(ctx, result.Allocation.ID)
	require.NoError(t, err)

	updated, err := roomRepo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.RoomStatusVacant, updated.Status)
}

func TestAllocationRepository_Allocate_ClosesPriorAllocation(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewAllocationRepository(suite.DB)
	roomRepo := repository.NewRoomRepository(suite.DB)

	roomA := insertRoom(t, ctx, testutil.WithCapacity(2))
	roomB := insertRoom(t, ctx, testutil.WithCapacity(2))
	student := insertStudent(t, ctx)

	first, err := repo.Allocate(ctx, student.ID, roomA.ID)
	require.NoError(t, err)

	// Moving the student closes the first allocation and frees the old room
	second, err := repo.Allocate(ctx, student.ID, roomB.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Occupants)

	closed, err := repo.GetByID(ctx, first.Allocation.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsActive)
	assert.NotNil(t, closed.EndDate)

	oldRoom, err := roomRepo.GetByID(ctx, roomA.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, oldRoom.Occupants)
	assert.Equal(t, repository.RoomStatusVacant, oldRoom.Status)

	// At most one active allocation exists for the student
	active, err := repo.GetActiveByStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, roomB.ID, active.RoomID)

	history, err := repo.ListByStudent(ctx, student.ID)
	require.NoError(t, err)
	activeCount := 0
	for _, alloc := range history {
		if alloc.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestAllocationRepository_Allocate_RejectsMaintenanceRoom(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewAllocationRepository(suite.DB)

	room := insertRoom(t, ctx, testutil.WithRoomStatus(repository.RoomStatusMaintenance))
	student := insertStudent(t, ctx)

	_, err := repo.Allocate(ctx, student.ID, room.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestAllocationRepository_Allocate_MaintenanceRoomKeepsStatusOnRelease(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewAllocationRepository(suite.DB)
	roomRepo := repository.NewRoomRepository(suite.DB)

	room := insertRoom(t, ctx, testutil.WithCapacity(2))
	student := insertStudent(t, ctx)

	result, err := repo.Allocate(ctx, student.ID, room.ID)
	require.NoError(t, err)

	// Flag the room for maintenance while the student still lives there
	_, err = suite.RawDB.ExecContext(ctx, `UPDATE rooms SET status = 'Maintenance' WHERE id = $1`, room.ID)
	require.NoError(t, err)

	// Releasing recomputes occupants but never auto-transitions a Maintenance room
	_, err = repo.Release(ctx, result.Allocation.ID)
	require.NoError(t, err)

	updated, err := roomRepo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Occupants)
	assert.Equal(t, repository.RoomStatusMaintenance, updated.Status)
}

func TestAllocationRepository_Release(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewAllocationRepository(suite.DB)
	roomRepo := repository.NewRoomRepository(suite.DB)

	room := insertRoom(t, ctx)
	student := insertStudent(t, ctx)

	result, err := repo.Allocate(ctx, student.ID, room.ID)
	require.NoError(t, err)

	released, err := repo.Release(ctx, result.Allocation.ID)
	require.NoError(t, err)
	assert.False(t, released.IsActive)
	assert.NotNil(t, released.EndDate)

	updated, err := roomRepo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Occupants)
	assert.Equal(t, repository.RoomStatusVacant, updated.Status)

	// Releasing twice is a conflict
	_, err = repo.Release(ctx, result.Allocation.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestAllocationRepository_Allocate_UnknownStudentOrRoom(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewAllocationRepository(suite.DB)

	room := insertRoom(t, ctx)
	student := insertStudent(t, ctx)

	_, err := repo.Allocate(ctx, student.ID, "00000000-0000-0000-0000-000000000001")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = repo.Allocate(ctx, "00000000-0000-0000-0000-000000000002", room.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
