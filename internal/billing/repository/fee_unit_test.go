package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/hostelhq/hostelhq-backend/internal/billing/repository"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
	"github.com/hostelhq/hostelhq-backend/pkg/testutil"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	unitFeeID     = "3c9a1f6e-2b7d-4e8a-9c1f-5d6e7a8b9c0d"
	unitStudentID = "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
)

func feeColumns() []string {
	return []string{
		"id", "student_id", "fee_type", "amount", "due_date",
		"status", "payment_date", "created_at", "updated_at",
	}
}

func TestFeeRepository_ProcessPayment_Commits(t *testing.T) {
	s := testutil.NewUnitTestSuite(t)
	defer s.Cleanup()

	now := time.Now()
	due := now.AddDate(0, 0, 7)

	s.MockDB.ExpectBegin()
	s.MockDB.ExpectQuery("SELECT id, student_id, fee_type").WillReturnRows(
		testutil.MockRows(feeColumns()...).
			AddRow(unitFeeID, unitStudentID, "Hostel", 750.0, due, repository.FeeStatusDue, nil, now, now),
	)
	s.MockDB.ExpectQuery("UPDATE fees").WillReturnRows(
		testutil.MockRows("status", "payment_date", "updated_at").
			AddRow(repository.FeeStatusPaid, now, now),
	)
	s.MockDB.ExpectQuery("INSERT INTO payments").WillReturnRows(
		testutil.MockRows("id", "fee_id", "student_id", "amount", "payment_method", "paid_on").
			AddRow("9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b", unitFeeID, unitStudentID, 750.0, "Cash", now),
	)
	s.MockDB.ExpectCommit()

	repo := repository.NewFeeRepository(s.MockDB.DB)
	fee, payment, err := repo.ProcessPayment(context.Background(), unitFeeID, "Cash")
	require.NoError(t, err)

	assert.Equal(t, repository.FeeStatusPaid, fee.Status)
	assert.NotNil(t, fee.PaymentDate)
	assert.Equal(t, unitFeeID, payment.FeeID)
	assert.Equal(t, fee.Amount, payment.Amount)
}

func TestFeeRepository_ProcessPayment_NotFoundRollsBack(t *testing.T) {
	s := testutil.NewUnitTestSuite(t)
	defer s.Cleanup()

	s.MockDB.ExpectBegin()
	s.MockDB.ExpectQuery("SELECT id, student_id, fee_type").WillReturnError(sql.ErrNoRows)
	s.MockDB.ExpectRollback()

	repo := repository.NewFeeRepository(s.MockDB.DB)
	_, _, err := repo.ProcessPayment(context.Background(), unitFeeID, "Cash")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestFeeRepository_ProcessPayment_PaidFeeRollsBackBeforeWriting(t *testing.T) {
	s := testutil.NewUnitTestSuite(t)
	defer s.Cleanup()

	now := time.Now()

	// The locked row is already Paid; no UPDATE or INSERT may follow
	s.MockDB.ExpectBegin()
	s.MockDB.ExpectQuery("SELECT id, student_id, fee_type").WillReturnRows(
		testutil.MockRows(feeColumns()...).
			AddRow(unitFeeID, unitStudentID, "Hostel", 750.0, now, repository.FeeStatusPaid, now, now, now),
	)
	s.MockDB.ExpectRollback()

	repo := repository.NewFeeRepository(s.MockDB.DB)
	_, _, err := repo.ProcessPayment(context.Background(), unitFeeID, "Cash")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAlreadyPaid))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ALREADY_PAID", appErr.Code)
}

func TestFeeRepository_ProcessPayment_DuplicatePaymentMapsToConflict(t *testing.T) {
	s := testutil.NewUnitTestSuite(t)
	defer s.Cleanup()

	now := time.Now()

	s.MockDB.ExpectBegin()
	s.MockDB.ExpectQuery("SELECT id, student_id, fee_type").WillReturnRows(
		testutil.MockRows(feeColumns()...).
			AddRow(unitFeeID, unitStudentID, "Hostel", 750.0, now, repository.FeeStatusDue, nil, now, now),
	)
	s.MockDB.ExpectQuery("UPDATE fees").WillReturnRows(
		testutil.MockRows("status", "payment_date", "updated_at").
			AddRow(repository.FeeStatusPaid, now, now),
	)
	s.MockDB.ExpectQuery("INSERT INTO payments").WillReturnError(&pq.Error{
		Code:       "23505",
		Constraint: "payments_fee_id_key",
	})
	s.MockDB.ExpectRollback()

	repo := repository.NewFeeRepository(s.MockDB.DB)
	_, _, err := repo.ProcessPayment(context.Background(), unitFeeID, "Cash")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Contains(t, err.Error(), "payment already exists")
}
