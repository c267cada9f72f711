package repository

import (
	"context"

	"github.com/hostelhq/hostelhq-backend/pkg/database"
)

// perTypeLimit caps the hits returned for each entity type
const perTypeLimit = 5

// Hit is one search result in the uniform {id, label, path} shape
type Hit struct {
	ID    string `db:"id" json:"id"`
	Label string `db:"label" json:"label"`
	Path  string `db:"path" json:"path"`
}

// Results groups hits by entity type
type Results struct {
	Students []Hit `json:"students"`
	Rooms    []Hit `json:"rooms"`
}

// SearchRepository runs substring lookups across searchable entities
type SearchRepository struct {
	db *database.DB
}

// NewSearchRepository creates a new search repository
func NewSearchRepository(db *database.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Search matches the term case-insensitively as a substring against student
// names and emails and against room numbers, returning at most five hits per
// type.
func (r *SearchRepository) Search(ctx context.Context, term string) (*Results, error) {
	results := &Results{
		Students: []Hit{},
		Rooms:    []Hit{},
	}
	pattern := "%" + term + "%"

	studentQuery := `
		SELECT id, full_name AS label, '/students/' || id AS path
		FROM students
		WHERE full_name ILIKE $1 OR email ILIKE $1
		ORDER BY full_name
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &results.Students, studentQuery, pattern, perTypeLimit); err != nil {
		return nil, err
	}

	roomQuery := `
		SELECT id, 'Room ' || room_number AS label, '/rooms/' || id AS path
		FROM rooms
		WHERE room_number ILIKE $1
		ORDER BY room_number
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &results.Rooms, roomQuery, pattern, perTypeLimit); err != nil {
		return nil, err
	}

	return results, nil
}
