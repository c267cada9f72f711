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

// Room statuses. Maintenance is set manually and never auto-transitioned.
const (
	RoomStatusVacant      = "Vacant"
	RoomStatusOccupied    = "Occupied"
	RoomStatusMaintenance = "Maintenance"
)

// Room represents a hostel room. Occupants is derived from active
// allocations and recomputed on every allocation change.
type Room struct {
	ID         string    `db:"id" json:"id"`
	RoomNumber string    `db:"room_number" json:"room_number"`
	RoomType   *string   `db:"room_type" json:"room_type,omitempty"`
	Status     string    `db:"status" json:"status"`
	Occupants  int       `db:"occupants" json:"occupants"`
	Capacity   int       `db:"capacity" json:"capacity"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// RoomListParams filters the room list
type RoomListParams struct {
	Status   *string
	RoomType *string
}

// RoomRepository handles room persistence
type RoomRepository struct {
	db *database.DB
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *database.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create creates a new room
func (r *RoomRepository) Create(ctx context.Context, room *Room) error {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	if room.Status == "" {
		room.Status = RoomStatusVacant
	}
	if room.Capacity == 0 {
		room.Capacity = 1
	}

	query := `
		INSERT INTO rooms (id, room_number, room_type, status, occupants, capacity)
		VALUES ($1, $2, $3, $4, 0, $5)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		room.ID, room.RoomNumber, room.RoomType, room.Status, room.Capacity,
	).Scan(&room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a room by ID
func (r *RoomRepository) GetByID(ctx context.Context, id string) (*Room, error) {
	var room Room

	query := `
		SELECT id, room_number, room_type, status, occupants, capacity, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &room, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("room")
	}
	if err != nil {
		return nil, err
	}

	return &room, nil
}

// List lists rooms with optional filters
func (r *RoomRepository) List(ctx context.Context, params RoomListParams) ([]*Room, error) {
	var rooms []*Room

	query := `
		SELECT id, room_number, room_type, status, occupants, capacity, created_at, updated_at
		FROM rooms
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR room_type = $2)
		ORDER BY room_number
	`

	if err := r.db.SelectContext(ctx, &rooms, query, params.Status, params.RoomType); err != nil {
		return nil, err
	}

	return rooms, nil
}

// Update updates a room's mutable fields. Setting status to Maintenance takes
// the room out of automatic occupancy transitions until it is cleared.
func (r *RoomRepository) Update(ctx context.Context, room *Room) error {
	query := `
		UPDATE rooms
		SET room_number = $2, room_type = $3, status = $4, capacity = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING occupants, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		room.ID, room.RoomNumber, room.RoomType, room.Status, room.Capacity,
	).Scan(&room.Occupants, &room.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("room")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// Delete removes a room
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("room")
	}

	return nil
}

// recomputeOccupancy refreshes a room's occupants count and status from its
// active allocations, inside the caller's transaction. Occupied means full:
// a room stays Vacant until its occupants reach capacity. Rooms flagged
// Maintenance keep that status until cleared manually.
func recomputeOccupancy(tx *sqlx.Tx, roomID string) (occupants int, status string, err error) {
	query := `
		UPDATE rooms
		SET occupants = sub.active_count,
		    status = CASE
		        WHEN status = 'Maintenance' THEN status
		        WHEN sub.active_count >= capacity THEN 'Occupied'
		        ELSE 'Vacant'
		    END,
		    updated_at = NOW()
		FROM (
			SELECT COUNT(*) AS active_count
			FROM room_allocations
			WHERE room_id = $1 AND is_active
		) sub
		WHERE id = $1
		RETURNING occupants, status
	`

	err = tx.QueryRowx(query, roomID).Scan(&occupants, &status)
	return occupants, status, err
}
