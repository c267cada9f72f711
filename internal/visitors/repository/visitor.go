package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hostelhq/hostelhq-backend/pkg/database"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
)

// Visitor statuses
const (
	StatusIn  = "In"
	StatusOut = "Out"
)

// Visitor represents a visit to a student, open (In) until checked out
type Visitor struct {
	ID           string     `db:"id" json:"id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	VisitorName  string     `db:"visitor_name" json:"visitor_name"`
	Relation     *string    `db:"relation" json:"relation,omitempty"`
	CheckInTime  time.Time  `db:"check_in_time" json:"check_in_time"`
	CheckOutTime *time.Time `db:"check_out_time" json:"check_out_time,omitempty"`
	Status       string     `db:"status" json:"status"`
}

// VisitorListParams filters the visitor list
type VisitorListParams struct {
	StudentID *string
	Status    *string
}

// VisitorRepository handles visitor persistence
type VisitorRepository struct {
	db *database.DB
}

// NewVisitorRepository creates a new visitor repository
func NewVisitorRepository(db *database.DB) *VisitorRepository {
	return &VisitorRepository{db: db}
}

// CheckIn records a visitor arrival with status In
func (r *VisitorRepository) CheckIn(ctx context.Context, visitor *Visitor) error {
	visitor.Status = StatusIn

	query := `
		INSERT INTO visitors (student_id, visitor_name, relation, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, check_in_time
	`

	err := r.db.QueryRowxContext(ctx, query,
		visitor.StudentID, visitor.VisitorName, visitor.Relation, visitor.Status,
	).Scan(&visitor.ID, &visitor.CheckInTime)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// CheckOut stamps the departure time and flips status to Out. Checking out a
// visitor that already left rejects with a conflict.
func (r *VisitorRepository) CheckOut(ctx context.Context, id string) (*Visitor, error) {
	var visitor Visitor

	query := `
		UPDATE visitors
		SET check_out_time = NOW(), status = $2
		WHERE id = $1 AND status = $3
		RETURNING id, student_id, visitor_name, relation, check_in_time, check_out_time, status
	`

	err := r.db.QueryRowxContext(ctx, query, id, StatusOut, StatusIn).StructScan(&visitor)
	if err == sql.ErrNoRows {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, errors.Conflict("visitor is already checked out")
	}
	if err != nil {
		return nil, err
	}

	return &visitor, nil
}

// GetByID gets a visitor by ID
func (r *VisitorRepository) GetByID(ctx context.Context, id string) (*Visitor, error) {
	var visitor Visitor

	query := `
		SELECT id, student_id, visitor_name, relation, check_in_time, check_out_time, status
		FROM visitors
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &visitor, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("visitor")
	}
	if err != nil {
		return nil, err
	}

	return &visitor, nil
}

// List lists visitors with filters, most recent check-in first
func (r *VisitorRepository) List(ctx context.Context, params VisitorListParams) ([]*Visitor, error) {
	var visitors []*Visitor

	query := `
		SELECT id, student_id, visitor_name, relation, check_in_time, check_out_time, status
		FROM visitors
		WHERE ($1::uuid IS NULL OR student_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY check_in_time DESC
	`

	if err := r.db.SelectContext(ctx, &visitors, query, params.StudentID, params.Status); err != nil {
		return nil, err
	}

	return visitors, nil
}
