package service

import (
	"context"

	"github.com/hostelhq/hostelhq-backend/internal/visitors/repository"
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

// VisitorService manages visitor check-ins and check-outs
type VisitorService struct {
	visitors  *repository.VisitorRepository
	publisher EventPublisher
	logger    *logger.Logger
}

// NewVisitorService creates a new visitor service
func NewVisitorService(visitors *repository.VisitorRepository, publisher EventPublisher, log *logger.Logger) *VisitorService {
	return &VisitorService{
		visitors:  visitors,
		publisher: publisher,
		logger:    log,
	}
}

// CheckInInput holds the fields for a visitor check-in
type CheckInInput struct {
	StudentID   string  `json:"student_id" validate:"required,uuid"`
	VisitorName string  `json:"visitor_name" validate:"required,min=1,max=255"`
	Relation    *string `json:"relation,omitempty" validate:"omitempty,max=50"`
}

// CheckIn records a visitor arrival
func (s *VisitorService) CheckIn(ctx context.Context, input CheckInInput) (*repository.Visitor, error) {
	if !access.Allowed(actor.FromContext(ctx), "visitors.create") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	visitor := &repository.Visitor{
		StudentID:   input.StudentID,
		VisitorName: input.VisitorName,
		Relation:    input.Relation,
	}

	if err := s.visitors.CheckIn(ctx, visitor); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("visitor_id", visitor.ID).
		Str("student_id", visitor.StudentID).
		Msg("visitor checked in")

	if err := s.publisher.Publish(ctx, messaging.EventVisitorCheckedIn, messaging.VisitorCheckedInEvent{
		VisitorID:   visitor.ID,
		StudentID:   visitor.StudentID,
		VisitorName: visitor.VisitorName,
		CheckInTime: visitor.CheckInTime,
	}); err != nil {
		s.logger.Error().Err(err).Str("visitor_id", visitor.ID).Msg("failed to publish visitor checked in event")
	}

	return visitor, nil
}

// CheckOut records a visitor departure
func (s *VisitorService) CheckOut(ctx context.Context, id string) (*repository.Visitor, error) {
	if !access.Allowed(actor.FromContext(ctx), "visitors.update") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	visitor, err := s.visitors.CheckOut(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("visitor_id", visitor.ID).
		Str("student_id", visitor.StudentID).
		Msg("visitor checked out")

	if err := s.publisher.Publish(ctx, messaging.EventVisitorCheckedOut, messaging.VisitorCheckedOutEvent{
		VisitorID:    visitor.ID,
		StudentID:    visitor.StudentID,
		CheckOutTime: *visitor.CheckOutTime,
	}); err != nil {
		s.logger.Error().Err(err).Str("visitor_id", visitor.ID).Msg("failed to publish visitor checked out event")
	}

	return visitor, nil
}

// GetVisitor returns a visitor. Students may only read visitors to
// themselves.
func (s *VisitorService) GetVisitor(ctx context.Context, id string) (*repository.Visitor, error) {
	visitor, err := s.visitors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a := actor.FromContext(ctx)
	if !access.Allowed(a, "visitors.read") {
		if !access.Allowed(a, "visitors.read.own") || a.ID != visitor.StudentID {
			return nil, errors.Forbidden("insufficient permissions")
		}
	}

	return visitor, nil
}

// ListVisitors lists visitors. Students see only their own.
func (s *VisitorService) ListVisitors(ctx context.Context, params repository.VisitorListParams) ([]*repository.Visitor, error) {
	a := actor.FromContext(ctx)
	if !access.Allowed(a, "visitors.read") {
		if !access.Allowed(a, "visitors.read.own") {
			return nil, errors.Forbidden("insufficient permissions")
		}
		params.StudentID = &a.ID
	}

	return s.visitors.List(ctx, params)
}
