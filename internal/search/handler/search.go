package handler

import (
	"net/http"

	"github.com/hostelhq/hostelhq-backend/internal/search/service"
	"github.com/hostelhq/hostelhq-backend/pkg/httputil"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
)

// SearchHandler handles the universal search endpoint
type SearchHandler struct {
	service *service.SearchService
	logger  *logger.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(svc *service.SearchService, log *logger.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  log,
	}
}

// Search runs a universal search for the q query parameter
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, results)
}
