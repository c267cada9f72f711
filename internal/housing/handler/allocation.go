package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hostelhq/hostelhq-backend/internal/housing/service"
	"github.com/hostelhq/hostelhq-backend/pkg/httputil"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
)

// AllocationHandler handles room allocation endpoints
type AllocationHandler struct {
	service *service.HousingService
	logger  *logger.Logger
}

// NewAllocationHandler creates a new allocation handler
func NewAllocationHandler(svc *service.HousingService, log *logger.Logger) *AllocationHandler {
	return &AllocationHandler{
		service: svc,
		logger:  log,
	}
}

// Create allocates a student into a room
func (h *AllocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.AllocateRoomInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.AllocateRoom(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, result)
}

// Release ends an allocation
func (h *AllocationHandler) Release(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	alloc, err := h.service.ReleaseAllocation(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alloc)
}

// ListByStudent lists a student's allocation history
func (h *AllocationHandler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")

	allocations, err := h.service.ListStudentAllocations(r.Context(), studentID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, allocations)
}
