package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hostelhq/hostelhq-backend/internal/housing/repository"
	"github.com/hostelhq/hostelhq-backend/internal/housing/service"
	"github.com/hostelhq/hostelhq-backend/pkg/httputil"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	service *service.HousingService
	logger  *logger.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(svc *service.HousingService, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		service: svc,
		logger:  log,
	}
}

// Create creates a room
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateRoomInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	room, err := h.service.CreateRoom(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, room)
}

// Get returns a room by ID
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	room, err := h.service.GetRoom(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, room)
}

// List lists rooms with filters
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	params := repository.RoomListParams{}

	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = &status
	}
	if roomType := r.URL.Query().Get("room_type"); roomType != "" {
		params.RoomType = &roomType
	}

	rooms, err := h.service.ListRooms(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rooms)
}

// Update updates a room
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var input service.UpdateRoomInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	room, err := h.service.UpdateRoom(r.Context(), id, input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, room)
}

// Delete removes a room
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteRoom(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListAllocations lists allocations for a room
func (h *RoomHandler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	activeOnly := r.URL.Query().Get("active_only") == "true"

	allocations, err := h.service.ListRoomAllocations(r.Context(), id, activeOnly)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, allocations)
}
