package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hostelhq/hostelhq-backend/pkg/database"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
)

// Leave statuses
const (
	LeaveStatusPending  = "Pending"
	LeaveStatusApproved = "Approved"
	LeaveStatusRejected = "Rejected"
)

// Leave represents a student's leave request
type Leave struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	LeaveType  string    `db:"leave_type" json:"leave_type"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	Reason     *string   `db:"reason" json:"reason,omitempty"`
	Status     string    `db:"status" json:"status"`
	ApprovedBy *string   `db:"approved_by" json:"approved_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// LeaveListParams filters the leave list
type LeaveListParams struct {
	StudentID *string
	Status    *string
}

// LeaveRepository handles leave persistence
type LeaveRepository struct {
	db *database.DB
}

// NewLeaveRepository creates a new leave repository
func NewLeaveRepository(db *database.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create creates a leave request in Pending status
func (r *LeaveRepository) Create(ctx context.Context, leave *Leave) error {
	if leave.LeaveType == "" {
		leave.LeaveType = "Personal"
	}
	leave.Status = LeaveStatusPending

	query := `
		INSERT INTO leaves (student_id, leave_type, start_date, end_date, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		leave.StudentID, leave.LeaveType, leave.StartDate, leave.EndDate, leave.Reason,
	).Scan(&leave.ID, &leave.Status, &leave.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a leave by ID
func (r *LeaveRepository) GetByID(ctx context.Context, id string) (*Leave, error) {
	var leave Leave

	query := `
		SELECT id, student_id, leave_type, start_date, end_date, reason, status, approved_by, created_at
		FROM leaves
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &leave, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("leave")
	}
	if err != nil {
		return nil, err
	}

	return &leave, nil
}

// List lists leaves with filters
func (r *LeaveRepository) List(ctx context.Context, params LeaveListParams) ([]*Leave, error) {
	var leaves []*Leave

	query := `
		SELECT id, student_id, leave_type, start_date, end_date, reason, status, approved_by, created_at
		FROM leaves
		WHERE ($1::uuid IS NULL OR student_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
	`

	if err := r.db.SelectContext(ctx, &leaves, query, params.StudentID, params.Status); err != nil {
		return nil, err
	}

	return leaves, nil
}

// Review settles a Pending leave as Approved or Rejected. Only Pending
// leaves can be reviewed.
func (r *LeaveRepository) Review(ctx context.Context, id, status, reviewerID string) (*Leave, error) {
	var leave Leave

	query := `
		UPDATE leaves
		SET status = $2, approved_by = $3
		WHERE id = $1 AND status = 'Pending'
		RETURNING id, student_id, leave_type, start_date, end_date, reason, status, approved_by, created_at
	`

	err := r.db.QueryRowxContext(ctx, query, id, status, reviewerID).StructScan(&leave)
	if err == sql.ErrNoRows {
		// Either the leave is missing or it was already reviewed
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, errors.Conflict("leave has already been reviewed")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return &leave, nil
}
