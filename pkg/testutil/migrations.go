package testutil

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// hostelSchema is the full DDL for the hostel data layer. Constraint names
// here are load-bearing: database.MapPQError translates them into
// user-facing validation messages.
const hostelSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	id UUID PRIMARY KEY,
	full_name VARCHAR(255) NOT NULL,
	role VARCHAR(20) NOT NULL DEFAULT 'Student',
	email VARCHAR(255) NOT NULL,
	mobile_number VARCHAR(20),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT profiles_role_valid CHECK (role IN ('Admin', 'Staff', 'Student'))
);

CREATE TABLE IF NOT EXISTS students (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	profile_id UUID REFERENCES profiles(id) ON DELETE CASCADE,
	full_name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	course VARCHAR(100),
	year_of_study INT,
	contact VARCHAR(20),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT students_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS rooms (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	room_number VARCHAR(20) NOT NULL,
	room_type VARCHAR(50),
	status VARCHAR(20) NOT NULL DEFAULT 'Vacant',
	occupants INT NOT NULL DEFAULT 0,
	capacity INT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT rooms_room_number_key UNIQUE (room_number),
	CONSTRAINT rooms_room_status_valid CHECK (status IN ('Vacant', 'Occupied', 'Maintenance')),
	CONSTRAINT rooms_capacity_positive CHECK (capacity > 0)
);

CREATE TABLE IF NOT EXISTS room_allocations (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
	room_id UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
	start_date DATE NOT NULL DEFAULT CURRENT_DATE,
	end_date DATE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS room_allocations_active_allocation_idx
	ON room_allocations (student_id) WHERE is_active;

CREATE TABLE IF NOT EXISTS fees (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
	fee_type VARCHAR(50) NOT NULL DEFAULT 'Hostel',
	amount NUMERIC(10,2) NOT NULL,
	due_date DATE NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'Due',
	payment_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT fees_fee_status_valid CHECK (status IN ('Due', 'Paid', 'Overdue')),
	CONSTRAINT fees_amount_positive CHECK (amount > 0)
);

CREATE TABLE IF NOT EXISTS payments (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	fee_id UUID NOT NULL REFERENCES fees(id) ON DELETE CASCADE,
	student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
	amount NUMERIC(10,2) NOT NULL,
	payment_method VARCHAR(50) NOT NULL DEFAULT 'Cash',
	paid_on TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT payments_fee_key UNIQUE (fee_id),
	CONSTRAINT payments_amount_positive CHECK (amount > 0)
);

CREATE TABLE IF NOT EXISTS visitors (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
	visitor_name VARCHAR(255) NOT NULL,
	relation VARCHAR(50),
	check_in_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	check_out_time TIMESTAMPTZ,
	status VARCHAR(10) NOT NULL DEFAULT 'In',
	CONSTRAINT visitors_status_valid CHECK (status IN ('In', 'Out'))
);

CREATE TABLE IF NOT EXISTS maintenance_requests (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	room_id UUID REFERENCES rooms(id) ON DELETE SET NULL,
	reported_by UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	issue TEXT NOT NULL,
	category VARCHAR(50) NOT NULL DEFAULT 'General',
	priority VARCHAR(20) NOT NULL DEFAULT 'Normal',
	status VARCHAR(20) NOT NULL DEFAULT 'Pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT maintenance_requests_status_valid CHECK (status IN ('Pending', 'In Progress', 'Resolved'))
);

CREATE TABLE IF NOT EXISTS attendance_sessions (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	session_date DATE NOT NULL,
	session_type VARCHAR(50) NOT NULL,
	course VARCHAR(100),
	year_of_study INT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS attendance_sessions_key_idx
	ON attendance_sessions (session_date, session_type, COALESCE(course, ''), COALESCE(year_of_study, 0));

CREATE TABLE IF NOT EXISTS attendance_records (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	session_id UUID NOT NULL REFERENCES attendance_sessions(id) ON DELETE CASCADE,
	student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
	status VARCHAR(20) NOT NULL DEFAULT 'Unmarked',
	late_minutes INT NOT NULL DEFAULT 0,
	note TEXT,
	marked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	marked_by UUID,
	CONSTRAINT attendance_records_session_student_key UNIQUE (session_id, student_id),
	CONSTRAINT attendance_records_attendance_status_valid CHECK (status IN ('Present', 'Absent', 'Late', 'Excused', 'Unmarked', 'Holiday')),
	CONSTRAINT attendance_records_late_minutes_nonnegative CHECK (late_minutes >= 0)
);

CREATE TABLE IF NOT EXISTS leaves (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
	leave_type VARCHAR(50) NOT NULL DEFAULT 'Personal',
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	reason TEXT,
	status VARCHAR(20) NOT NULL DEFAULT 'Pending',
	approved_by UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT leaves_status_valid CHECK (status IN ('Pending', 'Approved', 'Rejected')),
	CONSTRAINT leaves_leave_dates_valid CHECK (end_date >= start_date)
);
`

// hostelTables in dependency order, children first, for truncation.
var hostelTables = []string{
	"leaves",
	"attendance_records",
	"attendance_sessions",
	"maintenance_requests",
	"visitors",
	"payments",
	"fees",
	"room_allocations",
	"rooms",
	"students",
	"profiles",
}

// ApplyHostelSchema creates the full hostel schema in the given database.
func ApplyHostelSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, hostelSchema); err != nil {
		return fmt.Errorf("failed to apply hostel schema: %w", err)
	}
	return nil
}

// TruncateAll empties every hostel table, resetting state between tests.
func TruncateAll(ctx context.Context, db *sqlx.DB) error {
	for _, table := range hostelTables {
		if _, err := db.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}
