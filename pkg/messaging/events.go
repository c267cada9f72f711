package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// Auth events (consumed from the identity provider)
	EventUserCreated = "user.created"
	EventUserDeleted = "user.deleted"

	// Directory events
	EventProfileCreated = "directory.profile.created"
	EventProfileUpdated = "directory.profile.updated"
	EventStudentCreated = "directory.student.created"

	// Housing events
	EventAllocationCreated  = "housing.allocation.created"
	EventAllocationReleased = "housing.allocation.released"
	EventRoomStatusChanged  = "housing.room.status.changed"
	EventMaintenanceCreated = "housing.maintenance.created"
	EventMaintenanceUpdated = "housing.maintenance.updated"

	// Billing events
	EventFeeCreated = "billing.fee.created"
	EventFeePaid    = "billing.fee.paid"
	EventFeeOverdue = "billing.fee.overdue"

	// Attendance events
	EventSessionCreated   = "attendance.session.created"
	EventAttendanceMarked = "attendance.marked"
	EventLeaveRequested   = "attendance.leave.requested"
	EventLeaveReviewed    = "attendance.leave.reviewed"

	// Visitor events
	EventVisitorCheckedIn  = "visitors.checked_in"
	EventVisitorCheckedOut = "visitors.checked_out"
)

// Exchange names
const (
	ExchangeAuthEvents   = "auth.events"
	ExchangeHostelEvents = "hostel.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Auth Events

// SignupMetadata carries the attributes collected at signup time.
type SignupMetadata struct {
	Role         string `json:"role"`
	FullName     string `json:"full_name"`
	MobileNumber string `json:"mobile_number,omitempty"`
}

// UserCreatedEvent is published by the identity provider when a user signs up
type UserCreatedEvent struct {
	UserID   string         `json:"user_id"`
	Email    string         `json:"email"`
	Metadata SignupMetadata `json:"metadata"`
}

// UserDeletedEvent is published by the identity provider when a user is removed
type UserDeletedEvent struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Directory Events

// ProfileCreatedEvent is published when a profile row is created
type ProfileCreatedEvent struct {
	ProfileID string `json:"profile_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
}

// StudentCreatedEvent is published when a student record is created
type StudentCreatedEvent struct {
	StudentID string `json:"student_id"`
	ProfileID string `json:"profile_id"`
	Email     string `json:"email"`
}

// Housing Events

// AllocationCreatedEvent is published when a student is allocated a room
type AllocationCreatedEvent struct {
	AllocationID string    `json:"allocation_id"`
	StudentID    string    `json:"student_id"`
	RoomID       string    `json:"room_id"`
	RoomNumber   string    `json:"room_number"`
	AllocatedAt  time.Time `json:"allocated_at"`
	AllocatedBy  string    `json:"allocated_by"`
}

// AllocationReleasedEvent is published when an allocation is vacated
type AllocationReleasedEvent struct {
	AllocationID string    `json:"allocation_id"`
	StudentID    string    `json:"student_id"`
	RoomID       string    `json:"room_id"`
	VacatedAt    time.Time `json:"vacated_at"`
}

// RoomStatusChangedEvent is published when a room's status changes
type RoomStatusChangedEvent struct {
	RoomID     string `json:"room_id"`
	RoomNumber string `json:"room_number"`
	OldStatus  string `json:"old_status"`
	NewStatus  string `json:"new_status"`
	Occupants  int    `json:"occupants"`
}

// MaintenanceCreatedEvent is published when a maintenance request is filed
type MaintenanceCreatedEvent struct {
	RequestID  string `json:"request_id"`
	RoomID     string `json:"room_id,omitempty"`
	ReportedBy string `json:"reported_by"`
	Category   string `json:"category"`
	Priority   string `json:"priority"`
}

// MaintenanceUpdatedEvent is published when a maintenance request changes status
type MaintenanceUpdatedEvent struct {
	RequestID string `json:"request_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	UpdatedBy string `json:"updated_by"`
}

// Billing Events

// FeeCreatedEvent is published when a fee is issued to a student
type FeeCreatedEvent struct {
	FeeID     string    `json:"fee_id"`
	StudentID string    `json:"student_id"`
	FeeType   string    `json:"fee_type"`
	Amount    float64   `json:"amount"`
	DueDate   time.Time `json:"due_date"`
}

// FeePaidEvent is published when a fee payment is processed
type FeePaidEvent struct {
	FeeID         string    `json:"fee_id"`
	PaymentID     string    `json:"payment_id"`
	StudentID     string    `json:"student_id"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	PaidAt        time.Time `json:"paid_at"`
}

// FeeOverdueEvent is published when a due fee passes its due date
type FeeOverdueEvent struct {
	FeeID     string    `json:"fee_id"`
	StudentID string    `json:"student_id"`
	Amount    float64   `json:"amount"`
	DueDate   time.Time `json:"due_date"`
}

// Attendance Events

// SessionCreatedEvent is published when an attendance session is created
type SessionCreatedEvent struct {
	SessionID   string `json:"session_id"`
	SessionDate string `json:"session_date"`
	SessionType string `json:"session_type"`
	Course      string `json:"course,omitempty"`
	YearOfStudy int    `json:"year_of_study,omitempty"`
}

// AttendanceMarkedEvent is published after a bulk marking operation
type AttendanceMarkedEvent struct {
	SessionID string `json:"session_id"`
	Marked    int    `json:"marked"`
	MarkedBy  string `json:"marked_by"`
}

// LeaveRequestedEvent is published when a student files a leave request
type LeaveRequestedEvent struct {
	LeaveID   string `json:"leave_id"`
	StudentID string `json:"student_id"`
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// LeaveReviewedEvent is published when a leave request is approved or rejected
type LeaveReviewedEvent struct {
	LeaveID    string `json:"leave_id"`
	StudentID  string `json:"student_id"`
	Status     string `json:"status"`
	ReviewedBy string `json:"reviewed_by"`
}

// Visitor Events

// VisitorCheckedInEvent is published when a visitor is checked in
type VisitorCheckedInEvent struct {
	VisitorID   string    `json:"visitor_id"`
	StudentID   string    `json:"student_id"`
	VisitorName string    `json:"visitor_name"`
	CheckInTime time.Time `json:"check_in_time"`
}

// VisitorCheckedOutEvent is published when a visitor is checked out
type VisitorCheckedOutEvent struct {
	VisitorID    string    `json:"visitor_id"`
	StudentID    string    `json:"student_id"`
	CheckOutTime time.Time `json:"check_out_time"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
