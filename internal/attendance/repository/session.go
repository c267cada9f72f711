package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hostelhq/hostelhq-backend/pkg/database"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
)

// Session represents an attendance-taking occasion, uniquely keyed by
// date, type and the optional course/year filters.
type Session struct {
	ID          string    `db:"id" json:"id"`
	SessionDate time.Time `db:"session_date" json:"session_date"`
	SessionType string    `db:"session_type" json:"session_type"`
	Course      *string   `db:"course" json:"course,omitempty"`
	YearOfStudy *int      `db:"year_of_study" json:"year_of_study,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SessionKey identifies a session for get-or-create lookups
type SessionKey struct {
	SessionDate time.Time
	SessionType string
	Course      *string
	YearOfStudy *int
}

// SessionRepository handles attendance session persistence
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// GetOrCreate returns the session matching the key, inserting it first if
// absent. Safe under concurrent calls for the same key: the insert defers to
// the unique index on the key columns and loses gracefully, after which the
// existing row is fetched.
func (r *SessionRepository) GetOrCreate(ctx context.Context, key SessionKey) (*Session, bool, error) {
	var session Session

	insertQuery := `
		INSERT INTO attendance_sessions (session_date, session_type, course, year_of_study)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_date, session_type, COALESCE(course, ''), COALESCE(year_of_study, 0)) DO NOTHING
		RETURNING id, session_date, session_type, course, year_of_study, created_at
	`

	err := r.db.QueryRowxContext(ctx, insertQuery,
		key.SessionDate, key.SessionType, key.Course, key.YearOfStudy,
	).StructScan(&session)
	if err == nil {
		return &session, true, nil
	}
	if err != sql.ErrNoRows {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, false, appErr
		}
		return nil, false, err
	}

	// Conflict: another call created the session, fetch it
	selectQuery := `
		SELECT id, session_date, session_type, course, year_of_study, created_at
		FROM attendance_sessions
		WHERE session_date = $1
		  AND session_type = $2
		  AND COALESCE(course, '') = COALESCE($3, '')
		  AND COALESCE(year_of_study, 0) = COALESCE($4, 0)
	`

	err = r.db.GetContext(ctx, &session, selectQuery,
		key.SessionDate, key.SessionType, key.Course, key.YearOfStudy,
	)
	if err != nil {
		return nil, false, err
	}

	return &session, false, nil
}

// GetByID gets a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	var session Session

	query := `
		SELECT id, session_date, session_type, course, year_of_study, created_at
		FROM attendance_sessions
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &session, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("attendance session")
	}
	if err != nil {
		return nil, err
	}

	return &session, nil
}

// ListByDateRange lists sessions with dates in [from, to]
func (r *SessionRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]*Session, error) {
	var sessions []*Session

	query := `
		SELECT id, session_date, session_type, course, year_of_study, created_at
		FROM attendance_sessions
		WHERE session_date BETWEEN $1 AND $2
		ORDER BY session_date, session_type
	`

	if err := r.db.SelectContext(ctx, &sessions, query, from, to); err != nil {
		return nil, err
	}

	return sessions, nil
}
