package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/hostelhq/hostelhq-backend/pkg/database"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
	"github.com/jmoiron/sqlx"
)

// Fee statuses. Paid is terminal; Due flips to Overdue past the due date.
const (
	FeeStatusDue     = "Due"
	FeeStatusPaid    = "Paid"
	FeeStatusOverdue = "Overdue"
)

// Fee represents a charge against a student
type Fee struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	FeeType     string     `db:"fee_type" json:"fee_type"`
	Amount      float64    `db:"amount" json:"amount"`
	DueDate     time.Time  `db:"due_date" json:"due_date"`
	Status      string     `db:"status" json:"status"`
	PaymentDate *time.Time `db:"payment_date" json:"payment_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Payment represents a settled fee. One payment exists per fee, created once
// and never mutated.
type Payment struct {
	ID            string    `db:"id" json:"id"`
	FeeID         string    `db:"fee_id" json:"fee_id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	Amount        float64   `db:"amount" json:"amount"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	PaidOn        time.Time `db:"paid_on" json:"paid_on"`
}

// FeeListParams filters the fee list
type FeeListParams struct {
	StudentID *string
	Status    *string
	Page      int
	PerPage   int
}

// FeeRepository handles fee and payment persistence
type FeeRepository struct {
	db *database.DB
}

// NewFeeRepository creates a new fee repository
func NewFeeRepository(db *database.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// Create creates a new fee
func (r *FeeRepository) Create(ctx context.Context, fee *Fee) error {
	if fee.ID == "" {
		fee.ID = uuid.New().String()
	}
	if fee.FeeType == "" {
		fee.FeeType = "Hostel"
	}
	if fee.Status == "" {
		fee.Status = FeeStatusDue
	}

	query := `
		INSERT INTO fees (id, student_id, fee_type, amount, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		fee.ID, fee.StudentID, fee.FeeType, fee.Amount, fee.DueDate, fee.Status,
	).Scan(&fee.CreatedAt, &fee.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a fee by ID
func (r *FeeRepository) GetByID(ctx context.Context, id string) (*Fee, error) {
	var fee Fee

	query := `
		SELECT id, student_id, fee_type, amount, due_date, status, payment_date, created_at, updated_at
		FROM fees
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &fee, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("fee")
	}
	if err != nil {
		return nil, err
	}

	return &fee, nil
}

// List lists fees with filters and pagination
func (r *FeeRepository) List(ctx context.Context, params FeeListParams) ([]*Fee, int64, error) {
	var total int64
	var fees []*Fee

	countQuery := `
		SELECT COUNT(*) FROM fees
		WHERE ($1::uuid IS NULL OR student_id = $1)
		  AND ($2::text IS NULL OR status = $2)
	`
	if err := r.db.GetContext(ctx, &total, countQuery, params.StudentID, params.Status); err != nil {
		return nil, 0, err
	}

	offset := (params.Page - 1) * params.PerPage
	query := `
		SELECT id, student_id, fee_type, amount, due_date, status, payment_date, created_at, updated_at
		FROM fees
		WHERE ($1::uuid IS NULL OR student_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY due_date, created_at
		LIMIT $3 OFFSET $4
	`

	if err := r.db.SelectContext(ctx, &fees, query, params.StudentID, params.Status, params.PerPage, offset); err != nil {
		return nil, 0, err
	}

	return fees, total, nil
}

// ProcessPayment settles a fee as one transaction: the fee row is locked, a
// missing fee rejects with NOT_FOUND, an already-Paid fee rejects with
// ALREADY_PAID and writes no second payment, otherwise the fee flips to Paid
// and exactly one payment row is inserted with the fee's amount.
func (r *FeeRepository) ProcessPayment(ctx context.Context, feeID, paymentMethod string) (*Fee, *Payment, error) {
	var fee Fee
	var payment Payment

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		err := tx.Get(&fee, `
			SELECT id, student_id, fee_type, amount, due_date, status, payment_date, created_at, updated_at
			FROM fees
			WHERE id = $1
			FOR UPDATE
		`, feeID)
		if err == sql.ErrNoRows {
			return errors.NotFound("fee")
		}
		if err != nil {
			return err
		}

		if fee.Status == FeeStatusPaid {
			return errors.AlreadyPaid(fee.ID)
		}

		err = tx.QueryRowx(`
			UPDATE fees
			SET status = $2, payment_date = NOW(), updated_at = NOW()
			WHERE id = $1
			RETURNING status, payment_date, updated_at
		`, fee.ID, FeeStatusPaid).Scan(&fee.Status, &fee.PaymentDate, &fee.UpdatedAt)
		if err != nil {
			return err
		}

		err = tx.QueryRowx(`
			INSERT INTO payments (fee_id, student_id, amount, payment_method)
			VALUES ($1, $2, $3, $4)
			RETURNING id, fee_id, student_id, amount, payment_method, paid_on
		`, fee.ID, fee.StudentID, fee.Amount, paymentMethod).StructScan(&payment)
		if err != nil {
			if appErr := database.MapPQError(err); appErr != nil {
				return appErr
			}
			return err
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &fee, &payment, nil
}

// GetPaymentByFee returns the payment row for a fee
func (r *FeeRepository) GetPaymentByFee(ctx context.Context, feeID string) (*Payment, error) {
	var payment Payment

	query := `
		SELECT id, fee_id, student_id, amount, payment_method, paid_on
		FROM payments
		WHERE fee_id = $1
	`

	err := r.db.GetContext(ctx, &payment, query, feeID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("payment")
	}
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// MarkOverdue flips Due fees past their due date to Overdue and returns the
// affected fees. Paid fees are never touched.
func (r *FeeRepository) MarkOverdue(ctx context.Context) ([]*Fee, error) {
	var fees []*Fee

	query := `
		UPDATE fees
		SET status = 'Overdue', updated_at = NOW()
		WHERE status = 'Due' AND due_date < CURRENT_DATE
		RETURNING id, student_id, fee_type, amount, due_date, status, payment_date, created_at, updated_at
	`

	if err := r.db.SelectContext(ctx, &fees, query); err != nil {
		return nil, err
	}

	return fees, nil
}
