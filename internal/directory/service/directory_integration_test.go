package service_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/hostelhq/hostelhq-backend/internal/directory/repository"
	"github.com/hostelhq/hostelhq-backend/internal/directory/service"
	"github.com/hostelhq/hostelhq-backend/pkg/actor"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
	"github.com/hostelhq/hostelhq-backend/pkg/messaging"
	"github.com/hostelhq/hostelhq-backend/pkg/testutil"
	"github.com/google/uuid"
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

func newDirectoryService(publisher service.EventPublisher) *service.DirectoryService {
	profiles := repository.NewProfileRepository(suite.DB)
	students := repository.NewStudentRepository(suite.DB)
	return service.NewDirectoryService(profiles, students, publisher, suite.Logger)
}

func systemCtx() context.Context {
	return actor.WithActor(context.Background(), actor.SystemActor())
}

func signupEvent(role string) *messaging.UserCreatedEvent {
	id := uuid.New().String()
	return &messaging.UserCreatedEvent{
		UserID: id,
		Email:  id[:8] + "@test.hostelhq.io",
		Metadata: messaging.SignupMetadata{
			Role:         role,
			FullName:     "Asha Verma",
			MobileNumber: "+919000012345",
		},
	}
}

func TestDirectoryService_RegisterUser_StudentSignup(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	publisher := testutil.NewMockPublisher()
	svc := newDirectoryService(publisher)

	event := signupEvent("Student")
	require.NoError(t, svc.RegisterUser(systemCtx(), event))

	// Profile and student rows both exist with the auth user's ID
	profile, err := svc.GetProfile(systemCtx(), event.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Verma", profile.FullName)
	assert.Equal(t, "Student", profile.Role)

	student, err := svc.GetStudent(systemCtx(), event.UserID)
	require.NoError(t, err)
	assert.Equal(t, event.Email, student.Email)
	require.NotNil(t, student.ProfileID)
	assert.Equal(t, event.UserID, *student.ProfileID)

	publisher.AssertEventPublished(t, messaging.EventProfileCreated)
	publisher.AssertEventPublished(t, messaging.EventStudentCreated)
}

func TestDirectoryService_RegisterUser_Redelivery(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	publisher := testutil.NewMockPublisher()
	svc := newDirectoryService(publisher)

	event := signupEvent("Student")
	require.NoError(t, svc.RegisterUser(systemCtx(), event))

	// Redelivery of the same event creates nothing and publishes nothing new
	publisher.Reset()
	require.NoError(t, svc.RegisterUser(systemCtx(), event))
	publisher.AssertNoEventsPublished(t)

	var count int
	err := suite.RawDB.GetContext(ctx, &count, `SELECT COUNT(*) FROM profiles WHERE id = $1`, event.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = suite.RawDB.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE id = $1`, event.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDirectoryService_RegisterUser_InvalidRoleDefaultsToStudent(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	publisher := testutil.NewMockPublisher()
	svc := newDirectoryService(publisher)

	event := signupEvent("Superuser")
	require.NoError(t, svc.RegisterUser(systemCtx(), event))

	profile, err := svc.GetProfile(systemCtx(), event.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Student", profile.Role)
}

func TestDirectoryService_RegisterUser_StaffSignupSkipsStudentRow(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	publisher := testutil.NewMockPublisher()
	svc := newDirectoryService(publisher)

	event := signupEvent("Staff")
	require.NoError(t, svc.RegisterUser(systemCtx(), event))

	var count int
	err := suite.RawDB.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE id = $1`, event.UserID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDirectoryService_StudentSelfAccess(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	publisher := testutil.NewMockPublisher()
	svc := newDirectoryService(publisher)

	selfEvent := signupEvent("Student")
	otherEvent := signupEvent("Student")
	require.NoError(t, svc.RegisterUser(systemCtx(), selfEvent))
	require.NoError(t, svc.RegisterUser(systemCtx(), otherEvent))

	studentCtx := actor.WithActor(ctx, &actor.Actor{
		ID:   selfEvent.UserID,
		Role: actor.RoleStudent,
	})

	// A student reads their own rows
	_, err := svc.GetProfile(studentCtx, selfEvent.UserID)
	require.NoError(t, err)
	_, err = svc.GetStudent(studentCtx, selfEvent.UserID)
	require.NoError(t, err)

	// But never anyone else's
	_, err = svc.GetProfile(studentCtx, otherEvent.UserID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
	_, err = svc.GetStudent(studentCtx, otherEvent.UserID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	// Staff read freely
	staffCtx := actor.WithActor(ctx, &actor.Actor{
		ID:   uuid.New().String(),
		Role: actor.RoleStaff,
	})
	_, err = svc.GetStudent(staffCtx, otherEvent.UserID)
	require.NoError(t, err)
}

func TestDirectoryService_RemoveUser_MissingIsNoError(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	publisher := testutil.NewMockPublisher()
	svc := newDirectoryService(publisher)

	assert.NoError(t, svc.RemoveUser(systemCtx(), uuid.New().String()))
}
