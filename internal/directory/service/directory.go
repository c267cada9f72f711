package service

import (
	"context"

	"github.com/hostelhq/hostelhq-backend/internal/directory/repository"
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

// DirectoryService manages profiles and students, including the identity
// bridge that materializes signup events into rows.
type DirectoryService struct {
	profiles  *repository.ProfileRepository
	students  *repository.StudentRepository
	publisher EventPublisher
	logger    *logger.Logger
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(
	profiles *repository.ProfileRepository,
	students *repository.StudentRepository,
	publisher EventPublisher,
	log *logger.Logger,
) *DirectoryService {
	return &DirectoryService{
		profiles:  profiles,
		students:  students,
		publisher: publisher,
		logger:    log,
	}
}

// RegisterUser materializes a signup event into a profile row and, for
// students, a student row. Safe to call more than once for the same user:
// re-delivery creates nothing.
func (s *DirectoryService) RegisterUser(ctx context.Context, data *messaging.UserCreatedEvent) error {
	role := data.Metadata.Role
	if !actor.ValidRole(role) {
		// Signup must not fail on a bad role claim
		s.logger.Warn().
			Str("user_id", data.UserID).
			Str("role", role).
			Msg("unknown role in signup metadata, defaulting to Student")
		role = actor.RoleStudent
	}

	fullName := data.Metadata.FullName
	if fullName == "" {
		fullName = data.Email
	}

	var mobile *string
	if data.Metadata.MobileNumber != "" {
		mobile = &data.Metadata.MobileNumber
	}

	profile := &repository.Profile{
		ID:           data.UserID,
		FullName:     fullName,
		Role:         role,
		Email:        data.Email,
		MobileNumber: mobile,
	}

	inserted, err := s.profiles.Create(ctx, profile)
	if err != nil {
		return err
	}
	if !inserted {
		s.logger.Info().
			Str("user_id", data.UserID).
			Msg("profile already exists, skipping creation")
		return nil
	}

	if err := s.publisher.Publish(ctx, messaging.EventProfileCreated, messaging.ProfileCreatedEvent{
		ProfileID: profile.ID,
		Email:     profile.Email,
		FullName:  profile.FullName,
		Role:      profile.Role,
	}); err != nil {
		s.logger.Error().Err(err).Msg("failed to publish profile created event")
	}

	if role != actor.RoleStudent {
		return nil
	}

	student := &repository.Student{
		ID:        data.UserID,
		ProfileID: &profile.ID,
		FullName:  fullName,
		Email:     data.Email,
		Contact:   mobile,
	}

	if err := s.students.Create(ctx, student); err != nil {
		// A student row may survive from a previous partial delivery
		if errors.Is(err, errors.ErrConflict) {
			s.logger.Info().
				Str("user_id", data.UserID).
				Msg("student already exists, skipping creation")
			return nil
		}
		return err
	}

	if err := s.publisher.Publish(ctx, messaging.EventStudentCreated, messaging.StudentCreatedEvent{
		StudentID: student.ID,
		ProfileID: profile.ID,
		Email:     student.Email,
	}); err != nil {
		s.logger.Error().Err(err).Msg("failed to publish student created event")
	}

	return nil
}

// RemoveUser deletes the profile for a removed identity. Dependent rows
// cascade.
func (s *DirectoryService) RemoveUser(ctx context.Context, userID string) error {
	err := s.profiles.Delete(ctx, userID)
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	return err
}

// GetProfile returns a profile. Students may only read their own.
func (s *DirectoryService) GetProfile(ctx context.Context, id string) (*repository.Profile, error) {
	a := actor.FromContext(ctx)
	if !access.Allowed(a, "profiles.read") {
		if !access.Allowed(a, "profiles.read.own") || a.ID != id {
			return nil, errors.Forbidden("insufficient permissions")
		}
	}

	return s.profiles.GetByID(ctx, id)
}

// UpdateProfileInput holds the mutable profile fields
type UpdateProfileInput struct {
	FullName     string  `json:"full_name" validate:"required,min=1,max=255"`
	MobileNumber *string `json:"mobile_number,omitempty"`
}

// UpdateProfile updates a profile. Allowed for the owner and Admins.
func (s *DirectoryService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*repository.Profile, error) {
	a := actor.FromContext(ctx)
	if !a.IsAdmin() && !a.IsSystem() {
		if !access.Allowed(a, "profiles.update.own") || a.ID != id {
			return nil, errors.Forbidden("insufficient permissions")
		}
	}

	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	profile.FullName = input.FullName
	profile.MobileNumber = input.MobileNumber

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}

	// Keep the linked student row's name in sync
	if profile.Role == actor.RoleStudent {
		if student, err := s.students.GetByProfileID(ctx, profile.ID); err == nil {
			student.FullName = profile.FullName
			student.Contact = profile.MobileNumber
			if err := s.students.Update(ctx, student); err != nil {
				s.logger.Error().Err(err).Str("profile_id", profile.ID).Msg("failed to sync student record")
			}
		}
	}

	return profile, nil
}

// ListProfiles lists profiles with an optional role filter
func (s *DirectoryService) ListProfiles(ctx context.Context, role string, page, perPage int) ([]*repository.Profile, int64, error) {
	if !access.Allowed(actor.FromContext(ctx), "profiles.read") {
		return nil, 0, errors.Forbidden("insufficient permissions")
	}

	return s.profiles.List(ctx, role, page, perPage)
}

// CreateStudentInput holds the fields for manual student creation
type CreateStudentInput struct {
	FullName    string  `json:"full_name" validate:"required,min=1,max=255"`
	Email       string  `json:"email" validate:"required,email"`
	Course      *string `json:"course,omitempty"`
	YearOfStudy *int    `json:"year_of_study,omitempty" validate:"omitempty,gte=1,lte=6"`
	Contact     *string `json:"contact,omitempty"`
}

// CreateStudent creates a student record directly (Admin only). Students
// created this way have no linked profile until they sign up.
func (s *DirectoryService) CreateStudent(ctx context.Context, input CreateStudentInput) (*repository.Student, error) {
	if !access.Allowed(actor.FromContext(ctx), "students.create") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	student := &repository.Student{
		FullName:    input.FullName,
		Email:       input.Email,
		Course:      input.Course,
		YearOfStudy: input.YearOfStudy,
		Contact:     input.Contact,
	}

	if err := s.students.Create(ctx, student); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("student_id", student.ID).
		Str("email", student.Email).
		Msg("student created")

	return student, nil
}

// GetStudent returns a student. Students may only read their own record.
func (s *DirectoryService) GetStudent(ctx context.Context, id string) (*repository.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a := actor.FromContext(ctx)
	if !access.Allowed(a, "students.read") {
		if !access.Allowed(a, "students.read.own") || !ownsStudent(a, student) {
			return nil, errors.Forbidden("insufficient permissions")
		}
	}

	return student, nil
}

// GetOwnStudent returns the student record linked to the calling actor.
func (s *DirectoryService) GetOwnStudent(ctx context.Context) (*repository.Student, error) {
	a := actor.FromContext(ctx)
	if a == nil {
		return nil, errors.Unauthorized("authentication required")
	}
	return s.students.GetByProfileID(ctx, a.ID)
}

// ListStudents lists students with filters
func (s *DirectoryService) ListStudents(ctx context.Context, params repository.StudentListParams) ([]*repository.Student, int64, error) {
	if !access.Allowed(actor.FromContext(ctx), "students.read") {
		return nil, 0, errors.Forbidden("insufficient permissions")
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > 100 {
		params.PerPage = 50
	}

	return s.students.List(ctx, params)
}

// ListUnallocatedStudents lists students with no active room allocation
func (s *DirectoryService) ListUnallocatedStudents(ctx context.Context) ([]*repository.Student, error) {
	if !access.Allowed(actor.FromContext(ctx), "students.read") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	return s.students.ListUnallocated(ctx)
}

// UpdateStudent updates a student record (Admin only)
func (s *DirectoryService) UpdateStudent(ctx context.Context, id string, input CreateStudentInput) (*repository.Student, error) {
	if !access.Allowed(actor.FromContext(ctx), "students.update") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	student.FullName = input.FullName
	student.Email = input.Email
	student.Course = input.Course
	student.YearOfStudy = input.YearOfStudy
	student.Contact = input.Contact

	if err := s.students.Update(ctx, student); err != nil {
		return nil, err
	}

	return student, nil
}

// DeleteStudent removes a student record (Admin only)
func (s *DirectoryService) DeleteStudent(ctx context.Context, id string) error {
	if !access.Allowed(actor.FromContext(ctx), "students.delete") {
		return errors.Forbidden("insufficient permissions")
	}

	return s.students.Delete(ctx, id)
}

// ownsStudent reports whether the actor's identity backs the student record.
func ownsStudent(a *actor.Actor, student *repository.Student) bool {
	if a == nil {
		return false
	}
	if student.ProfileID != nil && *student.ProfileID == a.ID {
		return true
	}
	return student.ID == a.ID
}
