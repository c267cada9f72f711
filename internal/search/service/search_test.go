package service_test

import (
	"context"
	"testing"

	"github.com/hostelhq/hostelhq-backend/internal/search/service"
	"github.com/hostelhq/hostelhq-backend/pkg/actor"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Empty terms short-circuit before the repository, so a nil repository is
// safe here.
func TestSearch_EmptyTermReturnsEmptyGroups(t *testing.T) {
	svc := service.NewSearchService(nil, logger.New("test", "test"))
	ctx := actor.WithActor(context.Background(), &actor.Actor{ID: "s", Role: actor.RoleStudent})

	for _, term := range []string{"", "   ", "\t\n"} {
		results, err := svc.Search(ctx, term)
		require.NoError(t, err)
		assert.Empty(t, results.Students)
		assert.Empty(t, results.Rooms)
	}
}

func TestSearch_UnknownRoleForbidden(t *testing.T) {
	svc := service.NewSearchService(nil, logger.New("test", "test"))
	ctx := actor.WithActor(context.Background(), &actor.Actor{ID: "u", Role: "Visitor"})

	_, err := svc.Search(ctx, "101")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}
