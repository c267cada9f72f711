package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hostelhq/hostelhq-backend/internal/attendance/repository"
	"github.com/hostelhq/hostelhq-backend/internal/attendance/service"
	"github.com/hostelhq/hostelhq-backend/pkg/httputil"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
)

// LeaveHandler handles leave request endpoints
type LeaveHandler struct {
	service *service.AttendanceService
	logger  *logger.Logger
}

// NewLeaveHandler creates a new leave handler
func NewLeaveHandler(svc *service.AttendanceService, log *logger.Logger) *LeaveHandler {
	return &LeaveHandler{
		service: svc,
		logger:  log,
	}
}

// Create files a leave request for the calling student
func (h *LeaveHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.RequestLeaveInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	leave, err := h.service.RequestLeave(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, leave)
}

// List lists leave requests with filters
func (h *LeaveHandler) List(w http.ResponseWriter, r *http.Request) {
	params := repository.LeaveListParams{}

	if studentID := r.URL.Query().Get("student_id"); studentID != "" {
		params.StudentID = &studentID
	}
	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = &status
	}

	leaves, err := h.service.ListLeaves(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, leaves)
}

// reviewLeaveRequest is the body for leave reviews
type reviewLeaveRequest struct {
	Status string `json:"status" validate:"required,oneof=Approved Rejected"`
}

// Review approves or rejects a pending leave request
func (h *LeaveHandler) Review(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body reviewLeaveRequest
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(body); err != nil {
		httputil.Error(w, err)
		return
	}

	leave, err := h.service.ReviewLeave(r.Context(), id, body.Status)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, leave)
}
