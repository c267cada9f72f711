package service

import (
	"context"
	"strings"

	"github.com/hostelhq/hostelhq-backend/internal/search/repository"
	"github.com/hostelhq/hostelhq-backend/pkg/access"
	"github.com/hostelhq/hostelhq-backend/pkg/actor"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
)

// SearchService runs universal search across students and rooms
type SearchService struct {
	search *repository.SearchRepository
	logger *logger.Logger
}

// NewSearchService creates a new search service
func NewSearchService(search *repository.SearchRepository, log *logger.Logger) *SearchService {
	return &SearchService{
		search: search,
		logger: log,
	}
}

// Search matches the term across students and rooms. An empty or
// whitespace-only term returns empty groups without touching the database.
func (s *SearchService) Search(ctx context.Context, term string) (*repository.Results, error) {
	if !access.Allowed(actor.FromContext(ctx), "search.query") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return &repository.Results{
			Students: []repository.Hit{},
			Rooms:    []repository.Hit{},
		}, nil
	}

	return s.search.Search(ctx, term)
}
