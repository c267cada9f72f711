package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hostelhq/hostelhq-backend/pkg/database"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
)

// Profile represents a person known to the hostel. The ID matches the
// identity provider's user ID.
type Profile struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         string    `db:"role" json:"role"`
	Email        string    `db:"email" json:"email"`
	MobileNumber *string   `db:"mobile_number" json:"mobile_number,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileRepository handles profile persistence
type ProfileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a profile. Re-delivered signup events are tolerated: if the
// profile already exists nothing is written and inserted is false.
func (r *ProfileRepository) Create(ctx context.Context, p *Profile) (inserted bool, err error) {
	query := `
		INSERT INTO profiles (id, full_name, role, email, mobile_number)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowxContext(ctx, query,
		p.ID, p.FullName, p.Role, p.Email, p.MobileNumber,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		// Conflict: the profile row already exists
		return false, nil
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return false, appErr
		}
		return false, err
	}

	return true, nil
}

// GetByID gets a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*Profile, error) {
	var p Profile

	query := `
		SELECT id, full_name, role, email, mobile_number, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &p, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("profile")
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// List lists profiles with optional role filter
func (r *ProfileRepository) List(ctx context.Context, role string, page, perPage int) ([]*Profile, int64, error) {
	var total int64
	var profiles []*Profile

	countQuery := `SELECT COUNT(*) FROM profiles WHERE ($1 = '' OR role = $1)`
	if err := r.db.GetContext(ctx, &total, countQuery, role); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := `
		SELECT id, full_name, role, email, mobile_number, created_at, updated_at
		FROM profiles
		WHERE ($1 = '' OR role = $1)
		ORDER BY full_name
		LIMIT $2 OFFSET $3
	`

	if err := r.db.SelectContext(ctx, &profiles, query, role, perPage, offset); err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

// Update updates a profile's mutable fields
func (r *ProfileRepository) Update(ctx context.Context, p *Profile) error {
	query := `
		UPDATE profiles
		SET full_name = $2, mobile_number = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query, p.ID, p.FullName, p.MobileNumber).Scan(&p.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("profile")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// Delete removes a profile. Dependent student rows cascade.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("profile")
	}

	return nil
}
