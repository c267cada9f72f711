package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hostelhq/hostelhq-backend/pkg/database"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
	"github.com/jmoiron/sqlx"
)

// Allocation represents a student's stay in a room. At most one allocation
// per student is active at a time.
type Allocation struct {
	ID        string     `db:"id" json:"id"`
	StudentID string     `db:"student_id" json:"student_id"`
	RoomID    string     `db:"room_id" json:"room_id"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// AllocationResult carries the allocation plus the room state it produced.
type AllocationResult struct {
	Allocation *Allocation `json:"allocation"`
	RoomNumber string      `json:"room_number"`
	Occupants  int         `json:"occupants"`
	RoomStatus string      `json:"room_status"`
}

// AllocationRepository handles room allocation persistence
type AllocationRepository struct {
	db *database.DB
}

// NewAllocationRepository creates a new allocation repository
func NewAllocationRepository(db *database.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// Allocate moves a student into a room as one transaction: the room row is
// locked, capacity is checked against active occupants, any prior active
// allocation for the student is closed, the new allocation is inserted, and
// occupancy is recomputed for every touched room. A full room rejects with
// CAPACITY_EXCEEDED and writes nothing.
func (r *AllocationRepository) Allocate(ctx context.Context, studentID, roomID string) (*AllocationResult, error) {
	var result AllocationResult

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var room struct {
			RoomNumber string `db:"room_number"`
			Status     string `db:"status"`
			Capacity   int    `db:"capacity"`
		}

		err := tx.Get(&room, `
			SELECT room_number, status, capacity
			FROM rooms
			WHERE id = $1
			FOR UPDATE
		`, roomID)
		if err == sql.ErrNoRows {
			return errors.NotFound("room")
		}
		if err != nil {
			return err
		}

		if room.Status == RoomStatusMaintenance {
			return errors.Conflict("room is under maintenance")
		}

		var activeCount int
		if err := tx.Get(&activeCount, `
			SELECT COUNT(*) FROM room_allocations
			WHERE room_id = $1 AND is_active
		`, roomID); err != nil {
			return err
		}

		if activeCount >= room.Capacity {
			return errors.CapacityExceeded(room.RoomNumber)
		}

		var studentExists bool
		if err := tx.Get(&studentExists, `SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)`, studentID); err != nil {
			return err
		}
		if !studentExists {
			return errors.NotFound("student")
		}

		// Close any prior active allocation, remembering its room so its
		// occupancy can be refreshed too.
		var priorRoomID *string
		err = tx.QueryRowx(`
			UPDATE room_allocations
			SET is_active = FALSE, end_date = CURRENT_DATE
			WHERE student_id = $1 AND is_active
			RETURNING room_id
		`, studentID).Scan(&priorRoomID)
		if err != nil && err != sql.ErrNoRows {
			return err
		}

		var alloc Allocation
		err = tx.QueryRowx(`
			INSERT INTO room_allocations (student_id, room_id)
			VALUES ($1, $2)
			RETURNING id, student_id, room_id, start_date, end_date, is_active, created_at
		`, studentID, roomID).StructScan(&alloc)
		if err != nil {
			if appErr := database.MapPQError(err); appErr != nil {
				return appErr
			}
			return err
		}

		if priorRoomID != nil && *priorRoomID != roomID {
			if _, _, err := recomputeOccupancy(tx, *priorRoomID); err != nil {
				return err
			}
		}

		occupants, status, err := recomputeOccupancy(tx, roomID)
		if err != nil {
			return err
		}

		result = AllocationResult{
			Allocation: &alloc,
			RoomNumber: room.RoomNumber,
			Occupants:  occupants,
			RoomStatus: status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Release ends an allocation and recomputes the room's occupancy, as one
// transaction.
func (r *AllocationRepository) Release(ctx context.Context, allocationID string) (*Allocation, error) {
	var alloc Allocation

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		err := tx.Get(&alloc, `
			SELECT id, student_id, room_id, start_date, end_date, is_active, created_at
			FROM room_allocations
			WHERE id = $1
			FOR UPDATE
		`, allocationID)
		if err == sql.ErrNoRows {
			return errors.NotFound("allocation")
		}
		if err != nil {
			return err
		}

		if !alloc.IsActive {
			return errors.Conflict("allocation is already released")
		}

		err = tx.QueryRowx(`
			UPDATE room_allocations
			SET is_active = FALSE, end_date = CURRENT_DATE
			WHERE id = $1
			RETURNING end_date, is_active
		`, allocationID).Scan(&alloc.EndDate, &alloc.IsActive)
		if err != nil {
			return err
		}

		_, _, err = recomputeOccupancy(tx, alloc.RoomID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &alloc, nil
}

// GetByID gets an allocation by ID
func (r *AllocationRepository) GetByID(ctx context.Context, id string) (*Allocation, error) {
	var alloc Allocation

	query := `
		SELECT id, student_id, room_id, start_date, end_date, is_active, created_at
		FROM room_allocations
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &alloc, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("allocation")
	}
	if err != nil {
		return nil, err
	}

	return &alloc, nil
}

// GetActiveByStudent returns the student's active allocation, if any
func (r *AllocationRepository) GetActiveByStudent(ctx context.Context, studentID string) (*Allocation, error) {
	var alloc Allocation

	query := `
		SELECT id, student_id, room_id, start_date, end_date, is_active, created_at
		FROM room_allocations
		WHERE student_id = $1 AND is_active
	`

	err := r.db.GetContext(ctx, &alloc, query, studentID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("allocation")
	}
	if err != nil {
		return nil, err
	}

	return &alloc, nil
}

// ListByStudent lists a student's allocation history, newest first
func (r *AllocationRepository) ListByStudent(ctx context.Context, studentID string) ([]*Allocation, error) {
	var allocations []*Allocation

	query := `
		SELECT id, student_id, room_id, start_date, end_date, is_active, created_at
		FROM room_allocations
		WHERE student_id = $1
		ORDER BY created_at DESC
	`

	if err := r.db.SelectContext(ctx, &allocations, query, studentID); err != nil {
		return nil, err
	}

	return allocations, nil
}

// ListByRoom lists allocations for a room, active first
func (r *AllocationRepository) ListByRoom(ctx context.Context, roomID string, activeOnly bool) ([]*Allocation, error) {
	var allocations []*Allocation

	query := `
		SELECT id, student_id, room_id, start_date, end_date, is_active, created_at
		FROM room_allocations
		WHERE room_id = $1 AND ($2 = FALSE OR is_active)
		ORDER BY is_active DESC, created_at DESC
	`

	if err := r.db.SelectContext(ctx, &allocations, query, roomID, activeOnly); err != nil {
		return nil, err
	}

	return allocations, nil
}
