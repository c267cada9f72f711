package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hostelhq/hostelhq-backend/internal/housing/repository"
	"github.com/hostelhq/hostelhq-backend/internal/housing/service"
	"github.com/hostelhq/hostelhq-backend/pkg/httputil"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
)

// MaintenanceHandler handles maintenance request endpoints
type MaintenanceHandler struct {
	service *service.HousingService
	logger  *logger.Logger
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(svc *service.HousingService, log *logger.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		service: svc,
		logger:  log,
	}
}

// Create files a maintenance request
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateMaintenanceInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	req, err := h.service.CreateMaintenanceRequest(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, req)
}

// List lists maintenance requests with filters
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	params := repository.MaintenanceListParams{}

	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = &status
	}
	if roomID := r.URL.Query().Get("room_id"); roomID != "" {
		params.RoomID = &roomID
	}

	requests, err := h.service.ListMaintenanceRequests(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, requests)
}

// updateStatusRequest is the body for status updates
type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending 'In Progress' Resolved"`
}

// UpdateStatus advances a maintenance request's status
func (h *MaintenanceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body updateStatusRequest
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(body); err != nil {
		httputil.Error(w, err)
		return
	}

	req, err := h.service.AdvanceMaintenanceStatus(r.Context(), id, body.Status)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, req)
}
