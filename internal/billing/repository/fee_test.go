package repository_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/hostelhq/hostelhq-backend/internal/billing/repository"
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

func insertStudentWithFee(t *testing.T, ctx context.Context, opts ...func(*testutil.FeeFixture)) (testutil.StudentFixture, testutil.FeeFixture) {
	t.Helper()
	student := suite.Fixtures.Student()
	testutil.InsertStudent(t, ctx, suite.RawDB, student)
	fee := suite.Fixtures.Fee(student.ID, opts...)
	testutil.InsertFee(t, ctx, suite.RawDB, fee)
	return student, fee
}

func countPayments(t *testing.T, ctx context.Context, feeID string) int {
	t.Helper()
	var count int
	err := suite.RawDB.GetContext(ctx, &count, `SELECT COUNT(*) FROM payments WHERE fee_id = $1`, feeID)
	require.NoError(t, err)
	return count
}

func TestFeeRepository_ProcessPayment(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewFeeRepository(suite.DB)
	_, fixture := insertStudentWithFee(t, ctx, testutil.WithAmount(750))

	fee, payment, err := repo.ProcessPayment(ctx, fixture.ID, "Cash")
	require.NoError(t, err)

	assert.Equal(t, repository.FeeStatusPaid, fee.Status)
	assert.NotNil(t, fee.PaymentDate)
	assert.Equal(t, fixture.ID, payment.FeeID)
	assert.Equal(t, 750.0, payment.Amount)
	assert.Equal(t, "Cash", payment.PaymentMethod)
	assert.Equal(t, 1, countPayments(t, ctx, fixture.ID))
}

func TestFeeRepository_ProcessPayment_RejectsSecondPayment(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewFeeRepository(suite.DB)
	_, fixture := insertStudentWithFee(t, ctx)

	_, _, err := repo.ProcessPayment(ctx, fixture.ID, "Cash")
	require.NoError(t, err)

	// A second payment is rejected and the payment count stays at one
	_, _, err = repo.ProcessPayment(ctx, fixture.ID, "Card")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAlreadyPaid))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ALREADY_PAID", appErr.Code)

	assert.Equal(t, 1, countPayments(t, ctx, fixture.ID))

	fee, err := repo.GetByID(ctx, fixture.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.FeeStatusPaid, fee.Status)
}

func TestFeeRepository_ProcessPayment_NotFound(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewFeeRepository(suite.DB)

	_, _, err := repo.ProcessPayment(ctx, "00000000-0000-0000-0000-000000000099", "Cash")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestFeeRepository_MarkOverdue(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewFeeRepository(suite.DB)

	pastDue := time.Now().AddDate(0, 0, -10)
	_, overdueFee := insertStudentWithFee(t, ctx, testutil.WithDueDate(pastDue))
	_, futureFee := insertStudentWithFee(t, ctx)
	_, paidFee := insertStudentWithFee(t, ctx, testutil.WithDueDate(pastDue), testutil.WithFeeStatus(repository.FeeStatusPaid))

	flipped, err := repo.MarkOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, flipped, 1)
	assert.Equal(t, overdueFee.ID, flipped[0].ID)
	assert.Equal(t, repository.FeeStatusOverdue, flipped[0].Status)

	// Future and paid fees are untouched
	fee, err := repo.GetByID(ctx, futureFee.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.FeeStatusDue, fee.Status)

	fee, err = repo.GetByID(ctx, paidFee.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.FeeStatusPaid, fee.Status)

	// A second scan finds nothing new
	flipped, err = repo.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, flipped)
}

func TestFeeRepository_List_FiltersByStudentAndStatus(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	repo := repository.NewFeeRepository(suite.DB)

	studentA, feeA := insertStudentWithFee(t, ctx)
	_, _ = insertStudentWithFee(t, ctx)

	fees, total, err := repo.List(ctx, repository.FeeListParams{
		StudentID: &studentA.ID,
		Page:      1,
		PerPage:   50,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, fees, 1)
	assert.Equal(t, feeA.ID, fees[0].ID)

	status := repository.FeeStatusDue
	_, total, err = repo.List(ctx, repository.FeeListParams{
		Status:  &status,
		Page:    1,
		PerPage: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
