package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hostelhq/hostelhq-backend/internal/directory/repository"
	"github.com/hostelhq/hostelhq-backend/internal/directory/service"
	"github.com/hostelhq/hostelhq-backend/pkg/httputil"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
)

// StudentHandler handles student endpoints
type StudentHandler struct {
	service *service.DirectoryService
	logger  *logger.Logger
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(svc *service.DirectoryService, log *logger.Logger) *StudentHandler {
	return &StudentHandler{
		service: svc,
		logger:  log,
	}
}

// Create creates a student
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateStudentInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	student, err := h.service.CreateStudent(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, student)
}

// Get returns a student by ID
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	student, err := h.service.GetStudent(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, student)
}

// GetMe returns the caller's own student record
func (h *StudentHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	student, err := h.service.GetOwnStudent(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, student)
}

// List lists students with filters
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	params := repository.StudentListParams{}
	params.Page, params.PerPage = parsePagination(r)

	if course := r.URL.Query().Get("course"); course != "" {
		params.Course = &course
	}
	if year, err := strconv.Atoi(r.URL.Query().Get("year_of_study")); err == nil && year > 0 {
		params.YearOfStudy = &year
	}

	students, total, err := h.service.ListStudents(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, students, paginationMeta(params.Page, params.PerPage, total))
}

// ListUnallocated lists students without an active room allocation
func (h *StudentHandler) ListUnallocated(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.ListUnallocatedStudents(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, students)
}

// Update updates a student
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var input service.CreateStudentInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	student, err := h.service.UpdateStudent(r.Context(), id, input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, student)
}

// Delete removes a student
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteStudent(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
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
