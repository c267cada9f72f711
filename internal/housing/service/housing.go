package service

import (
	"context"

	"github.com/hostelhq/hostelhq-backend/internal/housing/repository"
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

// HousingService manages rooms, allocations, and maintenance requests
type HousingService struct {
	rooms       *repository.RoomRepository
	allocations *repository.AllocationRepository
	maintenance *repository.MaintenanceRepository
	publisher   EventPublisher
	logger      *logger.Logger
}

// NewHousingService creates a new housing service
func NewHousingService(
	rooms *repository.RoomRepository,
	allocations *repository.AllocationRepository,
	maintenance *repository.MaintenanceRepository,
	publisher EventPublisher,
	log *logger.Logger,
) *HousingService {
	return &HousingService{
		rooms:       rooms,
		allocations: allocations,
		maintenance: maintenance,
		publisher:   publisher,
		logger:      log,
	}
}

// CreateRoomInput holds the fields for room creation
type CreateRoomInput struct {
	RoomNumber string  `json:"room_number" validate:"required,min=1,max=20"`
	RoomType   *string `json:"room_type,omitempty"`
	Capacity   int     `json:"capacity" validate:"required,gt=0"`
}

// CreateRoom creates a room (Admin only)
func (s *HousingService) CreateRoom(ctx context.Context, input CreateRoomInput) (*repository.Room, error) {
	if !access.Allowed(actor.FromContext(ctx), "rooms.create") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	room := &repository.Room{
		RoomNumber: input.RoomNumber,
		RoomType:   input.RoomType,
		Capacity:   input.Capacity,
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("room_id", room.ID).
		Str("room_number", room.RoomNumber).
		Int("capacity", room.Capacity).
		Msg("room created")

	return room, nil
}

// GetRoom returns a room by ID
func (s *HousingService) GetRoom(ctx context.Context, id string) (*repository.Room, error) {
	if !access.Allowed(actor.FromContext(ctx), "rooms.read") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	return s.rooms.GetByID(ctx, id)
}

// ListRooms lists rooms with filters
func (s *HousingService) ListRooms(ctx context.Context, params repository.RoomListParams) ([]*repository.Room, error) {
	if !access.Allowed(actor.FromContext(ctx), "rooms.read") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	return s.rooms.List(ctx, params)
}

// UpdateRoomInput holds the mutable room fields
type UpdateRoomInput struct {
	RoomNumber string  `json:"room_number" validate:"required,min=1,max=20"`
	RoomType   *string `json:"room_type,omitempty"`
	Status     string  `json:"status" validate:"required,oneof=Vacant Occupied Maintenance"`
	Capacity   int     `json:"capacity" validate:"required,gt=0"`
}

// UpdateRoom updates a room (Admin only). Flagging a room Maintenance takes
// it out of automatic status transitions; clearing the flag hands status back
// to occupancy recomputation on the next allocation change.
func (s *HousingService) UpdateRoom(ctx context.Context, id string, input UpdateRoomInput) (*repository.Room, error) {
	if !access.Allowed(actor.FromContext(ctx), "rooms.update") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := room.Status
	room.RoomNumber = input.RoomNumber
	room.RoomType = input.RoomType
	room.Status = input.Status
	room.Capacity = input.Capacity

	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, err
	}

	if oldStatus != room.Status {
		if err := s.publisher.Publish(ctx, messaging.EventRoomStatusChanged, messaging.RoomStatusChangedEvent{
			RoomID:     room.ID,
			RoomNumber: room.RoomNumber,
			OldStatus:  oldStatus,
			NewStatus:  room.Status,
			Occupants:  room.Occupants,
		}); err != nil {
			s.logger.Error().Err(err).Str("room_id", room.ID).Msg("failed to publish room status changed event")
		}
	}

	return room, nil
}

// DeleteRoom removes a room (Admin only)
func (s *HousingService) DeleteRoom(ctx context.Context, id string) error {
	if !access.Allowed(actor.FromContext(ctx), "rooms.delete") {
		return errors.Forbidden("insufficient permissions")
	}

	return s.rooms.Delete(ctx, id)
}

// AllocateRoomInput holds the allocation request fields
type AllocateRoomInput struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	RoomID    string `json:"room_id" validate:"required,uuid"`
}

// AllocateRoom moves a student into a room (Admin only). A full or
// maintenance-flagged room rejects the allocation and writes nothing.
func (s *HousingService) AllocateRoom(ctx context.Context, input AllocateRoomInput) (*repository.AllocationResult, error) {
	a := actor.FromContext(ctx)
	if !access.Allowed(a, "allocations.create") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	result, err := s.allocations.Allocate(ctx, input.StudentID, input.RoomID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("allocation_id", result.Allocation.ID).
		Str("student_id", input.StudentID).
		Str("room_number", result.RoomNumber).
		Int("occupants", result.Occupants).
		Msg("room allocated")

	allocatedBy := ""
	if a != nil {
		allocatedBy = a.ID
	}

	if err := s.publisher.Publish(ctx, messaging.EventAllocationCreated, messaging.AllocationCreatedEvent{
		AllocationID: result.Allocation.ID,
		StudentID:    result.Allocation.StudentID,
		RoomID:       result.Allocation.RoomID,
		RoomNumber:   result.RoomNumber,
		AllocatedAt:  result.Allocation.CreatedAt,
		AllocatedBy:  allocatedBy,
	}); err != nil {
		s.logger.Error().Err(err).Str("allocation_id", result.Allocation.ID).Msg("failed to publish allocation created event")
	}

	return result, nil
}

// ReleaseAllocation ends an allocation (Admin only)
func (s *HousingService) ReleaseAllocation(ctx context.Context, id string) (*repository.Allocation, error) {
	if !access.Allowed(actor.FromContext(ctx), "allocations.release") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	alloc, err := s.allocations.Release(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("allocation_id", alloc.ID).
		Str("student_id", alloc.StudentID).
		Msg("allocation released")

	if err := s.publisher.Publish(ctx, messaging.EventAllocationReleased, messaging.AllocationReleasedEvent{
		AllocationID: alloc.ID,
		StudentID:    alloc.StudentID,
		RoomID:       alloc.RoomID,
		VacatedAt:    *alloc.EndDate,
	}); err != nil {
		s.logger.Error().Err(err).Str("allocation_id", alloc.ID).Msg("failed to publish allocation released event")
	}

	return alloc, nil
}

// ListStudentAllocations lists a student's allocation history. Students may
// only read their own.
func (s *HousingService) ListStudentAllocations(ctx context.Context, studentID string) ([]*repository.Allocation, error) {
	a := actor.FromContext(ctx)
	if !access.Allowed(a, "allocations.read") {
		if !access.Allowed(a, "allocations.read.own") || a.ID != studentID {
			return nil, errors.Forbidden("insufficient permissions")
		}
	}

	return s.allocations.ListByStudent(ctx, studentID)
}

// ListRoomAllocations lists allocations for a room (Admin/Staff)
func (s *HousingService) ListRoomAllocations(ctx context.Context, roomID string, activeOnly bool) ([]*repository.Allocation, error) {
	if !access.Allowed(actor.FromContext(ctx), "allocations.read") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	return s.allocations.ListByRoom(ctx, roomID, activeOnly)
}

// CreateMaintenanceInput holds the fields for filing a maintenance request
type CreateMaintenanceInput struct {
	RoomID   *string `json:"room_id,omitempty" validate:"omitempty,uuid"`
	Issue    string  `json:"issue" validate:"required,min=1"`
	Category string  `json:"category,omitempty"`
	Priority string  `json:"priority,omitempty" validate:"omitempty,oneof=Low Normal High Urgent"`
}

// CreateMaintenanceRequest files a maintenance request. The reporter is the
// calling actor.
func (s *HousingService) CreateMaintenanceRequest(ctx context.Context, input CreateMaintenanceInput) (*repository.MaintenanceRequest, error) {
	a := actor.FromContext(ctx)
	if !access.Allowed(a, "maintenance.create") {
		return nil, errors.Forbidden("insufficient permissions")
	}
	if a == nil {
		return nil, errors.Unauthorized("authentication required")
	}

	req := &repository.MaintenanceRequest{
		RoomID:     input.RoomID,
		ReportedBy: a.ID,
		Issue:      input.Issue,
		Category:   input.Category,
		Priority:   input.Priority,
	}

	if err := s.maintenance.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("request_id", req.ID).
		Str("reported_by", req.ReportedBy).
		Str("priority", req.Priority).
		Msg("maintenance request created")

	if err := s.publisher.Publish(ctx, messaging.EventMaintenanceCreated, messaging.MaintenanceCreatedEvent{
		RequestID:  req.ID,
		RoomID:     stringOrEmpty(req.RoomID),
		ReportedBy: req.ReportedBy,
		Category:   req.Category,
		Priority:   req.Priority,
	}); err != nil {
		s.logger.Error().Err(err).Str("request_id", req.ID).Msg("failed to publish maintenance created event")
	}

	return req, nil
}

// ListMaintenanceRequests lists maintenance requests. Students see only
// their own reports.
func (s *HousingService) ListMaintenanceRequests(ctx context.Context, params repository.MaintenanceListParams) ([]*repository.MaintenanceRequest, error) {
	a := actor.FromContext(ctx)
	if !access.Allowed(a, "maintenance.read") {
		if !access.Allowed(a, "maintenance.read.own") {
			return nil, errors.Forbidden("insufficient permissions")
		}
		params.ReportedBy = &a.ID
	}

	return s.maintenance.List(ctx, params)
}

// AdvanceMaintenanceStatus moves a request forward: Pending -> In Progress ->
// Resolved. Backward moves are rejected.
func (s *HousingService) AdvanceMaintenanceStatus(ctx context.Context, id, status string) (*repository.MaintenanceRequest, error) {
	a := actor.FromContext(ctx)
	if !access.Allowed(a, "maintenance.update") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	req, err := s.maintenance.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if maintenanceRank(status) <= maintenanceRank(req.Status) {
		return nil, errors.BadRequest("maintenance status can only move forward")
	}

	oldStatus := req.Status
	req, err = s.maintenance.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	updatedBy := ""
	if a != nil {
		updatedBy = a.ID
	}

	if err := s.publisher.Publish(ctx, messaging.EventMaintenanceUpdated, messaging.MaintenanceUpdatedEvent{
		RequestID: req.ID,
		OldStatus: oldStatus,
		NewStatus: req.Status,
		UpdatedBy: updatedBy,
	}); err != nil {
		s.logger.Error().Err(err).Str("request_id", req.ID).Msg("failed to publish maintenance updated event")
	}

	return req, nil
}

func maintenanceRank(status string) int {
	switch status {
	case repository.MaintenanceStatusPending:
		return 0
	case repository.MaintenanceStatusInProgress:
		return 1
	case repository.MaintenanceStatusResolved:
		return 2
	default:
		return -1
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
