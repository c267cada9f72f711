package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ProfileFixture represents test profile data
type ProfileFixture struct {
	ID           string
	FullName     string
	Role         string
	Email        string
	MobileNumber string
}

// StudentFixture represents test student data
type StudentFixture struct {
	ID          string
	ProfileID   *string
	FullName    string
	Email       string
	Course      string
	YearOfStudy int
	Contact     string
}

// RoomFixture represents test room data
type RoomFixture struct {
	ID         string
	RoomNumber string
	RoomType   string
	Status     string
	Occupants  int
	Capacity   int
}

// FeeFixture represents test fee data
type FeeFixture struct {
	ID        string
	StudentID string
	FeeType   string
	Amount    float64
	DueDate   time.Time
	Status    string
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Profile creates a profile fixture with defaults
func (f *FixtureFactory) Profile(opts ...func(*ProfileFixture)) ProfileFixture {
	seq := f.nextSeq()

	p := ProfileFixture{
		ID:           uuid.New().String(),
		FullName:     fmt.Sprintf("Test Person %d", seq),
		Role:         "Student",
		Email:        fmt.Sprintf("person%d@test.hostelhq.io", seq),
		MobileNumber: fmt.Sprintf("+91900000%04d", seq),
	}

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// WithRole sets the profile role
func WithRole(role string) func(*ProfileFixture) {
	return func(p *ProfileFixture) {
		p.Role = role
	}
}

// Student creates a student fixture with defaults
func (f *FixtureFactory) Student(opts ...func(*StudentFixture)) StudentFixture {
	seq := f.nextSeq()

	s := StudentFixture{
		ID:          uuid.New().String(),
		FullName:    fmt.Sprintf("Test Student %d", seq),
		Email:       fmt.Sprintf("student%d@test.hostelhq.io", seq),
		Course:      "BSc Computer Science",
		YearOfStudy: 1,
		Contact:     fmt.Sprintf("+91900001%04d", seq),
	}

	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// WithStudentName sets the student's full name
func WithStudentName(name string) func(*StudentFixture) {
	return func(s *StudentFixture) {
		s.FullName = name
	}
}

// WithCourse sets the student's course
func WithCourse(course string) func(*StudentFixture) {
	return func(s *StudentFixture) {
		s.Course = course
	}
}

// Room creates a room fixture with defaults
func (f *FixtureFactory) Room(opts ...func(*RoomFixture)) RoomFixture {
	seq := f.nextSeq()

	r := RoomFixture{
		ID:         uuid.New().String(),
		RoomNumber: fmt.Sprintf("%d", 100+seq),
		RoomType:   "Double",
		Status:     "Vacant",
		Occupants:  0,
		Capacity:   2,
	}

	for _, opt := range opts {
		opt(&r)
	}

	return r
}

// WithRoomNumber sets the room number
func WithRoomNumber(number string) func(*RoomFixture) {
	return func(r *RoomFixture) {
		r.RoomNumber = number
	}
}

// WithCapacity sets the room capacity
func WithCapacity(capacity int) func(*RoomFixture) {
	return func(r *RoomFixture) {
		r.Capacity = capacity
	}
}

// WithRoomStatus sets the room status
func WithRoomStatus(status string) func(*RoomFixture) {
	return func(r *RoomFixture) {
		r.Status = status
	}
}

// Fee creates a fee fixture with defaults
func (f *FixtureFactory) Fee(studentID string, opts ...func(*FeeFixture)) FeeFixture {
	fee := FeeFixture{
		ID:        uuid.New().String(),
		StudentID: studentID,
		FeeType:   "Hostel",
		Amount:    500,
		DueDate:   time.Now().AddDate(0, 1, 0),
		Status:    "Due",
	}

	for _, opt := range opts {
		opt(&fee)
	}

	return fee
}

// WithAmount sets the fee amount
func WithAmount(amount float64) func(*FeeFixture) {
	return func(fee *FeeFixture) {
		fee.Amount = amount
	}
}

// WithDueDate sets the fee due date
func WithDueDate(due time.Time) func(*FeeFixture) {
	return func(fee *FeeFixture) {
		fee.DueDate = due
	}
}

// WithFeeStatus sets the fee status
func WithFeeStatus(status string) func(*FeeFixture) {
	return func(fee *FeeFixture) {
		fee.Status = status
	}
}

// InsertProfile inserts a profile fixture into the database
func InsertProfile(t *testing.T, ctx context.Context, db *sqlx.DB, p ProfileFixture) {
	t.Helper()
	_, err := db.ExecContext(ctx,
		`INSERT INTO profiles (id, full_name, role, email, mobile_number) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.FullName, p.Role, p.Email, p.MobileNumber)
	if err != nil {
		t.Fatalf("failed to insert profile fixture: %v", err)
	}
}

// InsertStudent inserts a student fixture into the database
func InsertStudent(t *testing.T, ctx context.Context, db *sqlx.DB, s StudentFixture) {
	t.Helper()
	_, err := db.ExecContext(ctx,
		`INSERT INTO students (id, profile_id, full_name, email, course, year_of_study, contact)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.ProfileID, s.FullName, s.Email, s.Course, s.YearOfStudy, s.Contact)
	if err != nil {
		t.Fatalf("failed to insert student fixture: %v", err)
	}
}

// InsertRoom inserts a room fixture into the database
func InsertRoom(t *testing.T, ctx context.Context, db *sqlx.DB, r RoomFixture) {
	t.Helper()
	_, err := db.ExecContext(ctx,
		`INSERT INTO rooms (id, room_number, room_type, status, occupants, capacity)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.RoomNumber, r.RoomType, r.Status, r.Occupants, r.Capacity)
	if err != nil {
		t.Fatalf("failed to insert room fixture: %v", err)
	}
}

// InsertFee inserts a fee fixture into the database
func InsertFee(t *testing.T, ctx context.Context, db *sqlx.DB, fee FeeFixture) {
	t.Helper()
	_, err := db.ExecContext(ctx,
		`INSERT INTO fees (id, student_id, fee_type, amount, due_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		fee.ID, fee.StudentID, fee.FeeType, fee.Amount, fee.DueDate, fee.Status)
	if err != nil {
		t.Fatalf("failed to insert fee fixture: %v", err)
	}
}
