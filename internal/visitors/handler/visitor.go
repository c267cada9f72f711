package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hostelhq/hostelhq-backend/internal/visitors/repository"
	"github.com/hostelhq/hostelhq-backend/internal/visitors/service"
	"github.com/hostelhq/hostelhq-backend/pkg/httputil"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
)

// VisitorHandler handles visitor endpoints
type VisitorHandler struct {
	service *service.VisitorService
	logger  *logger.Logger
}

// NewVisitorHandler creates a new visitor handler
func NewVisitorHandler(svc *service.VisitorService, log *logger.Logger) *VisitorHandler {
	return &VisitorHandler{
		service: svc,
		logger:  log,
	}
}

// CheckIn records a visitor arrival
func (h *VisitorHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var input service.CheckInInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	visitor, err := h.service.CheckIn(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, visitor)
}

// CheckOut records a visitor departure
func (h *VisitorHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	visitor, err := h.service.CheckOut(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, visitor)
}

// Get returns a visitor by ID
func (h *VisitorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	visitor, err := h.service.GetVisitor(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, visitor)
}

// List lists visitors with filters
func (h *VisitorHandler) List(w http.ResponseWriter, r *http.Request) {
	params := repository.VisitorListParams{}

	if studentID := r.URL.Query().Get("student_id"); studentID != "" {
		params.StudentID = &studentID
	}
	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = &status
	}

	visitors, err := h.service.ListVisitors(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, visitors)
}
