package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hostelhq/hostelhq-backend/internal/billing/repository"
	"github.com/hostelhq/hostelhq-backend/internal/billing/service"
	"github.com/hostelhq/hostelhq-backend/pkg/httputil"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
)

// FeeHandler handles fee and payment endpoints
type FeeHandler struct {
	service *service.BillingService
	logger  *logger.Logger
}

// NewFeeHandler creates a new fee handler
func NewFeeHandler(svc *service.BillingService, log *logger.Logger) *FeeHandler {
	return &FeeHandler{
		service: svc,
		logger:  log,
	}
}

// Create issues a fee
func (h *FeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateFeeInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	fee, err := h.service.CreateFee(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, fee)
}

// Get returns a fee by ID
func (h *FeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	fee, err := h.service.GetFee(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, fee)
}

// List lists fees with filters
func (h *FeeHandler) List(w http.ResponseWriter, r *http.Request) {
	params := repository.FeeListParams{}
	params.Page, params.PerPage = parsePagination(r)

	if studentID := r.URL.Query().Get("student_id"); studentID != "" {
		params.StudentID = &studentID
	}
	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = &status
	}

	fees, total, err := h.service.ListFees(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, fees, paginationMeta(params.Page, params.PerPage, total))
}

// paymentResponse pairs the settled fee with its payment row
type paymentResponse struct {
	Fee     *repository.Fee     `json:"fee"`
	Payment *repository.Payment `json:"payment"`
}

// Pay settles a fee
func (h *FeeHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var input service.PayFeeInput
	if r.ContentLength > 0 {
		if err := httputil.DecodeJSON(r, &input); err != nil {
			httputil.Error(w, err)
			return
		}
		if err := httputil.Validate(input); err != nil {
			httputil.Error(w, err)
			return
		}
	}

	fee, payment, err := h.service.ProcessPayment(r.Context(), id, input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, paymentResponse{Fee: fee, Payment: payment})
}

// GetPayment returns the payment for a fee
func (h *FeeHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	payment, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, payment)
}

// parsePagination parses page/per_page query parameters with defaults
func parsePagination(r *http.Request) (page, perPage int) {
	page, perPage = 1, 50

	if p, _ := strconv.Atoi(r.URL.Query().Get("page")); p > 0 {
		page = p
	}
	if pp, _ := strconv.Atoi(r.URL.Query().Get("per_page")); pp > 0 && pp <= 100 {
		perPage = pp
	}
	return page, perPage
}

// paginationMeta builds the response metadata for a paginated list
func paginationMeta(page, perPage int, total int64) *httputil.Meta {
	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}
	return &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}
