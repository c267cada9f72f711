package database

import (
	"strings"

	"github.com/hostelhq/hostelhq-backend/pkg/errors"
	"github.com/lib/pq"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "role_valid"):
		return errors.Validation(map[string]string{
			"role": "must be one of: Admin, Staff, Student",
		})

	case strings.Contains(constraint, "room_status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: Vacant, Occupied, Maintenance",
		})

	case strings.Contains(constraint, "fee_status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: Due, Paid, Overdue",
		})

	case strings.Contains(constraint, "attendance_status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: Present, Absent, Late, Excused, Unmarked, Holiday",
		})

	case strings.Contains(constraint, "leave_dates_valid"):
		return errors.Validation(map[string]string{
			"end_date": "must not be before start_date",
		})

	case strings.Contains(constraint, "capacity_positive"):
		return errors.Validation(map[string]string{
			"capacity": "must be greater than zero",
		})

	case strings.Contains(constraint, "amount_positive"):
		return errors.Validation(map[string]string{
			"amount": "must be greater than zero",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "room_number"):
		return "a room with this room number already exists"
	case strings.Contains(constraint, "students_email"):
		return "a student with this email already exists"
	case strings.Contains(constraint, "active_allocation"):
		return "student already has an active room allocation"
	case strings.Contains(constraint, "payments_fee"):
		return "a payment already exists for this fee"
	case strings.Contains(constraint, "attendance_sessions_key"):
		return "an attendance session already exists for this date and type"
	case strings.Contains(constraint, "attendance_records_session_student"):
		return "an attendance record already exists for this student in this session"
	default:
		return "a record with these values already exists"
	}
}
