package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hostelhq/hostelhq-backend/internal/attendance/repository"
	"github.com/hostelhq/hostelhq-backend/pkg/access"
	"github.com/hostelhq/hostelhq-backend/pkg/actor"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
	"github.com/hostelhq/hostelhq-backend/pkg/messaging"
)

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// AttendanceService manages sessions, records and leaves
type AttendanceService struct {
	sessions  *repository.SessionRepository
	records   *repository.RecordRepository
	leaves    *repository.LeaveRepository
	publisher EventPublisher
	logger    *logger.Logger
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	sessions *repository.SessionRepository,
	records *repository.RecordRepository,
	leaves *repository.LeaveRepository,
	publisher EventPublisher,
	log *logger.Logger,
) *AttendanceService {
	return &AttendanceService{
		sessions:  sessions,
		records:   records,
		leaves:    leaves,
		publisher: publisher,
		logger:    log,
	}
}

// validStatuses are the accepted attendance record statuses
var validStatuses = map[string]bool{
	repository.StatusPresent:  true,
	repository.StatusAbsent:   true,
	repository.StatusLate:     true,
	repository.StatusExcused:  true,
	repository.StatusUnmarked: true,
	repository.StatusHoliday:  true,
}

// GetOrCreateSessionInput identifies a session key
type GetOrCreateSessionInput struct {
	SessionDate time.Time `json:"session_date" validate:"required"`
	SessionType string    `json:"session_type" validate:"required,min=1,max=50"`
	Course      *string   `json:"course,omitempty"`
	YearOfStudy *int      `json:"year_of_study,omitempty" validate:"omitempty,gt=0"`
}

// GetOrCreateSession returns the session for the key, creating it if absent.
// Concurrent calls for the same key resolve to the same session.
func (s *AttendanceService) GetOrCreateSession(ctx context.Context, input GetOrCreateSessionInput) (*repository.Session, error) {
	if !access.Allowed(actor.FromContext(ctx), "attendance.manage") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	session, created, err := s.sessions.GetOrCreate(ctx, repository.SessionKey{
		SessionDate: input.SessionDate,
		SessionType: input.SessionType,
		Course:      input.Course,
		YearOfStudy: input.YearOfStudy,
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info().
			Str("session_id", session.ID).
			Str("session_type", session.SessionType).
			Msg("attendance session created")

		if err := s.publisher.Publish(ctx, messaging.EventSessionCreated, messaging.SessionCreatedEvent{
			SessionID:   session.ID,
			SessionDate: session.SessionDate.Format("2006-01-02"),
			SessionType: session.SessionType,
			Course:      stringOrEmpty(session.Course),
			YearOfStudy: intOrZero(session.YearOfStudy),
		}); err != nil {
			s.logger.Error().Err(err).Str("session_id", session.ID).Msg("failed to publish session created event")
		}
	}

	return session, nil
}

// MarkAttendance bulk-upserts records for a session as one batch. Every entry
// is validated up front: one malformed entry rejects the whole batch before
// anything is written.
func (s *AttendanceService) MarkAttendance(ctx context.Context, sessionID string, entries []repository.MarkEntry) ([]*repository.Record, error) {
	a := actor.FromContext(ctx)
	if !access.Allowed(a, "attendance.manage") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	if len(entries) == 0 {
		return nil, errors.BadRequest("no attendance records provided")
	}

	for i, entry := range entries {
		if entry.StudentID == "" {
			return nil, errors.Validation(map[string]string{
				fmt.Sprintf("records[%d].student_id", i): "student_id is required",
			})
		}
		if !validStatuses[entry.Status] {
			return nil, errors.Validation(map[string]string{
				fmt.Sprintf("records[%d].status", i): fmt.Sprintf("invalid attendance status %q", entry.Status),
			})
		}
		if entry.LateMinutes < 0 {
			return nil, errors.Validation(map[string]string{
				fmt.Sprintf("records[%d].late_minutes", i): "late_minutes must not be negative",
			})
		}
	}

	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}

	records, err := s.records.BulkUpsert(ctx, sessionID, entries, a.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int("records", len(records)).
		Msg("attendance marked")

	if err := s.publisher.Publish(ctx, messaging.EventAttendanceMarked, messaging.AttendanceMarkedEvent{
		SessionID: sessionID,
		Marked:    len(records),
		MarkedBy:  a.ID,
	}); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to publish attendance marked event")
	}

	return records, nil
}

// ListSessionRecords lists the records marked for a session
func (s *AttendanceService) ListSessionRecords(ctx context.Context, sessionID string) ([]*repository.Record, error) {
	if !access.Allowed(actor.FromContext(ctx), "attendance.read") {
		return nil, errors.Forbidden("insufficient permissions")
	}
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.records.ListBySession(ctx, sessionID)
}

// StudentCalendar builds a student's day-by-day attendance report for a
// month. Students may only read their own.
func (s *AttendanceService) StudentCalendar(ctx context.Context, studentID string, month time.Month, year int) ([]repository.CalendarDay, error) {
	a := actor.FromContext(ctx)
	if !access.Allowed(a, "attendance.read") {
		if !access.Allowed(a, "attendance.read.own") || a.ID != studentID {
			return nil, errors.Forbidden("insufficient permissions")
		}
	}

	if month < time.January || month > time.December {
		return nil, errors.BadRequest("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return nil, errors.BadRequest("year is out of range")
	}

	return s.records.Calendar(ctx, studentID, month, year)
}

// RequestLeaveInput holds the fields for filing a leave request. StudentID is
// only honored for callers holding leaves.create; students always file for
// themselves.
type RequestLeaveInput struct {
	StudentID *string   `json:"student_id,omitempty" validate:"omitempty,uuid"`
	LeaveType string    `json:"leave_type,omitempty" validate:"omitempty,max=50"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	Reason    *string   `json:"reason,omitempty"`
}

// RequestLeave files a leave request
func (s *AttendanceService) RequestLeave(ctx context.Context, input RequestLeaveInput) (*repository.Leave, error) {
	a := actor.FromContext(ctx)

	studentID := ""
	if a != nil {
		studentID = a.ID
	}
	if input.StudentID != nil && *input.StudentID != studentID {
		if !access.Allowed(a, "leaves.create") {
			return nil, errors.Forbidden("insufficient permissions")
		}
		studentID = *input.StudentID
	} else if !access.Allowed(a, "leaves.create.own") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	if input.EndDate.Before(input.StartDate) {
		return nil, errors.BadRequest("end_date must not be before start_date")
	}

	leave := &repository.Leave{
		StudentID: studentID,
		LeaveType: input.LeaveType,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Reason:    input.Reason,
	}

	if err := s.leaves.Create(ctx, leave); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("leave_id", leave.ID).
		Str("student_id", leave.StudentID).
		Msg("leave requested")

	if err := s.publisher.Publish(ctx, messaging.EventLeaveRequested, messaging.LeaveRequestedEvent{
		LeaveID:   leave.ID,
		StudentID: leave.StudentID,
		LeaveType: leave.LeaveType,
		StartDate: leave.StartDate.Format("2006-01-02"),
		EndDate:   leave.EndDate.Format("2006-01-02"),
	}); err != nil {
		s.logger.Error().Err(err).Str("leave_id", leave.ID).Msg("failed to publish leave requested event")
	}

	return leave, nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrZero(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

// ListLeaves lists leave requests. Students see only their own.
func (s *AttendanceService) ListLeaves(ctx context.Context, params repository.LeaveListParams) ([]*repository.Leave, error) {
	a := actor.FromContext(ctx)
	if !access.Allowed(a, "leaves.read") {
		if !access.Allowed(a, "leaves.read.own") {
			return nil, errors.Forbidden("insufficient permissions")
		}
		params.StudentID = &a.ID
	}

	return s.leaves.List(ctx, params)
}

// ReviewLeave settles a Pending leave as Approved or Rejected
func (s *AttendanceService) ReviewLeave(ctx context.Context, id, status string) (*repository.Leave, error) {
	a := actor.FromContext(ctx)
	if !access.Allowed(a, "leaves.approve") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	if status != repository.LeaveStatusApproved && status != repository.LeaveStatusRejected {
		return nil, errors.BadRequest("status must be Approved or Rejected")
	}

	leave, err := s.leaves.Review(ctx, id, status, a.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("leave_id", leave.ID).
		Str("status", leave.Status).
		Msg("leave reviewed")

	if err := s.publisher.Publish(ctx, messaging.EventLeaveReviewed, messaging.LeaveReviewedEvent{
		LeaveID:    leave.ID,
		StudentID:  leave.StudentID,
		Status:     leave.Status,
		ReviewedBy: a.ID,
	}); err != nil {
		s.logger.Error().Err(err).Str("leave_id", leave.ID).Msg("failed to publish leave reviewed event")
	}

	return leave, nil
}
