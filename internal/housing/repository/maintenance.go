package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/hostelhq/hostelhq-backend/pkg/database"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
)

// Maintenance request statuses, advancing Pending -> In Progress -> Resolved.
const (
	MaintenanceStatusPending    = "Pending"
	MaintenanceStatusInProgress = "In Progress"
	MaintenanceStatusResolved   = "Resolved"
)

// MaintenanceRequest represents a reported issue with a room or facility
type MaintenanceRequest struct {
	ID         string    `db:"id" json:"id"`
	RoomID     *string   `db:"room_id" json:"room_id,omitempty"`
	ReportedBy string    `db:"reported_by" json:"reported_by"`
	Issue      string    `db:"issue" json:"issue"`
	Category   string    `db:"category" json:"category"`
	Priority   string    `db:"priority" json:"priority"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// MaintenanceListParams filters the maintenance request list
type MaintenanceListParams struct {
	Status     *string
	RoomID     *string
	ReportedBy *string
}

// MaintenanceRepository handles maintenance request persistence
type MaintenanceRepository struct {
	db *database.DB
}

// NewMaintenanceRepository creates a new maintenance repository
func NewMaintenanceRepository(db *database.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// Create creates a new maintenance request
func (r *MaintenanceRepository) Create(ctx context.Context, req *MaintenanceRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Category == "" {
		req.Category = "General"
	}
	if req.Priority == "" {
		req.Priority = "Normal"
	}
	if req.Status == "" {
		req.Status = MaintenanceStatusPending
	}

	query := `
		INSERT INTO maintenance_requests (id, room_id, reported_by, issue, category, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		req.ID, req.RoomID, req.ReportedBy, req.Issue, req.Category, req.Priority, req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a maintenance request by ID
func (r *MaintenanceRepository) GetByID(ctx context.Context, id string) (*MaintenanceRequest, error) {
	var req MaintenanceRequest

	query := `
		SELECT id, room_id, reported_by, issue, category, priority, status, created_at, updated_at
		FROM maintenance_requests
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &req, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("maintenance request")
	}
	if err != nil {
		return nil, err
	}

	return &req, nil
}

// List lists maintenance requests with optional filters
func (r *MaintenanceRepository) List(ctx context.Context, params MaintenanceListParams) ([]*MaintenanceRequest, error) {
	var requests []*MaintenanceRequest

	query := `
		SELECT id, room_id, reported_by, issue, category, priority, status, created_at, updated_at
		FROM maintenance_requests
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::uuid IS NULL OR room_id = $2)
		  AND ($3::uuid IS NULL OR reported_by = $3)
		ORDER BY created_at DESC
	`

	if err := r.db.SelectContext(ctx, &requests, query, params.Status, params.RoomID, params.ReportedBy); err != nil {
		return nil, err
	}

	return requests, nil
}

// UpdateStatus sets a maintenance request's status
func (r *MaintenanceRepository) UpdateStatus(ctx context.Context, id, status string) (*MaintenanceRequest, error) {
	var req MaintenanceRequest

	query := `
		UPDATE maintenance_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, room_id, reported_by, issue, category, priority, status, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query, id, status).StructScan(&req)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("maintenance request")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return &req, nil
}
