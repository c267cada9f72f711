package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/hostelhq/hostelhq-backend/pkg/database"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
)

// Student represents an enrolled hostel resident
type Student struct {
	ID          string    `db:"id" json:"id"`
	ProfileID   *string   `db:"profile_id" json:"profile_id,omitempty"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       string    `db:"email" json:"email"`
	Course      *string   `db:"course" json:"course,omitempty"`
	YearOfStudy *int      `db:"year_of_study" json:"year_of_study,omitempty"`
	Contact     *string   `db:"contact" json:"contact,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentListParams filters the student list
type StudentListParams struct {
	Course      *string
	YearOfStudy *int
	Page        int
	PerPage     int
}

// StudentRepository handles student persistence
type StudentRepository struct {
	db *database.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create creates a new student
func (r *StudentRepository) Create(ctx context.Context, s *Student) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	query := `
		INSERT INTO students (id, profile_id, full_name, email, course, year_of_study, contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		s.ID, s.ProfileID, s.FullName, s.Email, s.Course, s.YearOfStudy, s.Contact,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a student by ID
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*Student, error) {
	var s Student

	query := `
		SELECT id, profile_id, full_name, email, course, year_of_study, contact, created_at, updated_at
		FROM students
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &s, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("student")
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// GetByProfileID gets the student record linked to a profile
func (r *StudentRepository) GetByProfileID(ctx context.Context, profileID string) (*Student, error) {
	var s Student

	query := `
		SELECT id, profile_id, full_name, email, course, year_of_study, contact, created_at, updated_at
		FROM students
		WHERE profile_id = $1
	`

	err := r.db.GetContext(ctx, &s, query, profileID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("student")
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// GetByEmail gets a student by email
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*Student, error) {
	var s Student

	query := `
		SELECT id, profile_id, full_name, email, course, year_of_study, contact, created_at, updated_at
		FROM students
		WHERE email = $1
	`

	err := r.db.GetContext(ctx, &s, query, email)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("student")
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// List lists students with filters and pagination
func (r *StudentRepository) List(ctx context.Context, params StudentListParams) ([]*Student, int64, error) {
	var total int64
	var students []*Student

	countQuery := `
		SELECT COUNT(*) FROM students
		WHERE ($1::text IS NULL OR course = $1)
		  AND ($2::int IS NULL OR year_of_study = $2)
	`
	if err := r.db.GetContext(ctx, &total, countQuery, params.Course, params.YearOfStudy); err != nil {
		return nil, 0, err
	}

	offset := (params.Page - 1) * params.PerPage
	query := `
		SELECT id, profile_id, full_name, email, course, year_of_study, contact, created_at, updated_at
		FROM students
		WHERE ($1::text IS NULL OR course = $1)
		  AND ($2::int IS NULL OR year_of_study = $2)
		ORDER BY full_name
		LIMIT $3 OFFSET $4
	`

	if err := r.db.SelectContext(ctx, &students, query, params.Course, params.YearOfStudy, params.PerPage, offset); err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

// ListUnallocated lists students with no active room allocation
func (r *StudentRepository) ListUnallocated(ctx context.Context) ([]*Student, error) {
	var students []*Student

	query := `
		SELECT s.id, s.profile_id, s.full_name, s.email, s.course, s.year_of_study, s.contact,
		       s.created_at, s.updated_at
		FROM students s
		WHERE NOT EXISTS (
			SELECT 1 FROM room_allocations ra
			WHERE ra.student_id = s.id AND ra.is_active
		)
		ORDER BY s.full_name
	`

	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, err
	}

	return students, nil
}

// Update updates a student's mutable fields
func (r *StudentRepository) Update(ctx context.Context, s *Student) error {
	query := `
		UPDATE students
		SET full_name = $2, email = $3, course = $4, year_of_study = $5, contact = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		s.ID, s.FullName, s.Email, s.Course, s.YearOfStudy, s.Contact,
	).Scan(&s.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("student")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// Delete removes a student. Fees, visitors, allocations and attendance cascade.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("student")
	}

	return nil
}
