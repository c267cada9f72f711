package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hostelhq/hostelhq-backend/internal/attendance/repository"
	"github.com/hostelhq/hostelhq-backend/internal/attendance/service"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
	"github.com/hostelhq/hostelhq-backend/pkg/httputil"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
)

// AttendanceHandler handles session, record and calendar endpoints
type AttendanceHandler struct {
	service *service.AttendanceService
	logger  *logger.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(svc *service.AttendanceService, log *logger.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: svc,
		logger:  log,
	}
}

// GetOrCreateSession returns the session for the posted key, creating it if
// absent
func (h *AttendanceHandler) GetOrCreateSession(w http.ResponseWriter, r *http.Request) {
	var input service.GetOrCreateSessionInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	session, err := h.service.GetOrCreateSession(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, session)
}

// markAttendanceRequest is the body for bulk attendance marking
type markAttendanceRequest struct {
	Records []repository.MarkEntry `json:"records" validate:"required,min=1"`
}

// MarkAttendance bulk-upserts records for a session
func (h *AttendanceHandler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var body markAttendanceRequest
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(body); err != nil {
		httputil.Error(w, err)
		return
	}

	records, err := h.service.MarkAttendance(r.Context(), sessionID, body.Records)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, records)
}

// ListSessionRecords lists the records marked for a session
func (h *AttendanceHandler) ListSessionRecords(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	records, err := h.service.ListSessionRecords(r.Context(), sessionID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, records)
}

// Calendar returns a student's day-by-day report for a month
func (h *AttendanceHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("month query parameter is required"))
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("year query parameter is required"))
		return
	}

	days, err := h.service.StudentCalendar(r.Context(), studentID, time.Month(month), year)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, days)
}
