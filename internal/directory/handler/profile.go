package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hostelhq/hostelhq-backend/internal/directory/service"
	"github.com/hostelhq/hostelhq-backend/pkg/actor"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
	"github.com/hostelhq/hostelhq-backend/pkg/httputil"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
)

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	service *service.DirectoryService
	logger  *logger.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(svc *service.DirectoryService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: svc,
		logger:  log,
	}
}

// GetMe returns the caller's own profile
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	a := actor.FromContext(r.Context())
	if a == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	profile, err := h.service.GetProfile(r.Context(), a.ID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, profile)
}

// Get returns a profile by ID
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	profile, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, profile)
}

// List lists profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	page, perPage := parsePagination(r)

	profiles, total, err := h.service.ListProfiles(r.Context(), role, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, profiles, paginationMeta(page, perPage, total))
}

// Update updates a profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var input service.UpdateProfileInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), id, input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, profile)
}
