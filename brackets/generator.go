package brackets

import (
	"context"

	"github.com/Dosada05/chess-league/models"
)

type GenerateFixturesParams struct {
	Event  *models.Event
	Roster []string
}

type FixtureGenerator interface {
	GenerateFixtures(ctx context.Context, params GenerateFixturesParams) ([]*models.Fixture, error)

	GetName() string
}
