package repository

import (
	"context"
	"time"

	"github.com/hostelhq/hostelhq-backend/pkg/database"
	"github.com/jmoiron/sqlx"
)

// Attendance statuses
const (
	StatusPresent  = "Present"
	StatusAbsent   = "Absent"
	StatusLate     = "Late"
	StatusExcused  = "Excused"
	StatusUnmarked = "Unmarked"
	StatusHoliday  = "Holiday"
)

// Record represents one student's attendance for a session
type Record struct {
	ID          string    `db:"id" json:"id"`
	SessionID   string    `db:"session_id" json:"session_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	Status      string    `db:"status" json:"status"`
	LateMinutes int       `db:"late_minutes" json:"late_minutes"`
	Note        *string   `db:"note" json:"note,omitempty"`
	MarkedAt    time.Time `db:"marked_at" json:"marked_at"`
	MarkedBy    *string   `db:"marked_by" json:"marked_by,omitempty"`
}

// MarkEntry is one row of a bulk attendance mark
type MarkEntry struct {
	StudentID   string  `json:"student_id"`
	Status      string  `json:"status"`
	LateMinutes int     `json:"late_minutes"`
	Note        *string `json:"note,omitempty"`
}

// CalendarDay is one day of a student's monthly attendance report
type CalendarDay struct {
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
}

// RecordRepository handles attendance record persistence
type RecordRepository struct {
	db *database.DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *database.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// BulkUpsert writes all entries for a session as one transaction, keyed by
// (session_id, student_id): absent rows are inserted, existing rows have
// status, note and late_minutes overwritten with marked_at and marked_by
// refreshed. Any failing entry rolls back the whole batch.
func (r *RecordRepository) BulkUpsert(ctx context.Context, sessionID string, entries []MarkEntry, markedBy string) ([]*Record, error) {
	records := make([]*Record, 0, len(entries))

	var marker *string
	if markedBy != "" {
		marker = &markedBy
	}

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO attendance_records (session_id, student_id, status, late_minutes, note, marked_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (session_id, student_id) DO UPDATE
			SET status = EXCLUDED.status,
			    late_minutes = EXCLUDED.late_minutes,
			    note = EXCLUDED.note,
			    marked_at = NOW(),
			    marked_by = EXCLUDED.marked_by
			RETURNING id, session_id, student_id, status, late_minutes, note, marked_at, marked_by
		`

		for _, entry := range entries {
			var record Record
			err := tx.QueryRowx(query,
				sessionID, entry.StudentID, entry.Status, entry.LateMinutes, entry.Note, marker,
			).StructScan(&record)
			if err != nil {
				if appErr := database.MapPQError(err); appErr != nil {
					return appErr
				}
				return err
			}
			records = append(records, &record)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// ListBySession lists the records marked for a session
func (r *RecordRepository) ListBySession(ctx context.Context, sessionID string) ([]*Record, error) {
	var records []*Record

	query := `
		SELECT id, session_id, student_id, status, late_minutes, note, marked_at, marked_by
		FROM attendance_records
		WHERE session_id = $1
		ORDER BY student_id
	`

	if err := r.db.SelectContext(ctx, &records, query, sessionID); err != nil {
		return nil, err
	}

	return records, nil
}

// Calendar builds a student's day-by-day report for a month, ascending by
// date, defaulting days without a marked record to Unmarked. Days with more
// than one session report the most recently marked status.
func (r *RecordRepository) Calendar(ctx context.Context, studentID string, month time.Month, year int) ([]CalendarDay, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	type markedDay struct {
		Day    time.Time `db:"day"`
		Status string    `db:"status"`
	}
	var marked []markedDay

	query := `
		SELECT DISTINCT ON (s.session_date) s.session_date AS day, r.status
		FROM attendance_records r
		JOIN attendance_sessions s ON s.id = r.session_id
		WHERE r.student_id = $1
		  AND s.session_date BETWEEN $2 AND $3
		ORDER BY s.session_date, r.marked_at DESC
	`

	if err := r.db.SelectContext(ctx, &marked, query, studentID, first, last); err != nil {
		return nil, err
	}

	byDay := make(map[int]string, len(marked))
	for _, m := range marked {
		byDay[m.Day.Day()] = m.Status
	}

	days := make([]CalendarDay, 0, last.Day())
	for d := 1; d <= last.Day(); d++ {
		status, ok := byDay[d]
		if !ok {
			status = StatusUnmarked
		}
		days = append(days, CalendarDay{
			Date:   time.Date(year, month, d, 0, 0, 0, 0, time.UTC),
			Status: status,
		})
	}

	return days, nil
}
