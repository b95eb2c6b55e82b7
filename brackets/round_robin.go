package brackets

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/chess-league/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() FixtureGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "DoubleRoundRobin"
}

// GenerateFixtures creates a double round-robin for every round of the event.
// Each unordered pair plays twice per round, once with each colour, so a round
// has n*(n-1) fixtures. Rosters smaller than two or events without rounds
// produce no fixtures.
func (g *RoundRobinGenerator) GenerateFixtures(ctx context.Context, params GenerateFixturesParams) ([]*models.Fixture, error) {
	event := params.Event
	if event == nil {
		return nil, fmt.Errorf("RoundRobinGenerator: event is required")
	}
	if err := event.ValidateRounds(); err != nil {
		return nil, fmt.Errorf("RoundRobinGenerator: invalid event %d: %w", event.ID, err)
	}

	roster := uniqueRoster(params.Roster)
	n := len(roster)
	if n < 2 || event.NRounds == 0 {
		return []*models.Fixture{}, nil
	}

	fixtures := make([]*models.Fixture, 0, event.NRounds*n*(n-1))
	for round := 1; round <= event.NRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		deadline := event.RoundDeadline(round)
		tc := event.RoundsTimeFormat[round-1]

		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				// First leg
				fixtures = append(fixtures, newFixture(event.ID, round, roster[i], roster[j], deadline, tc))
				// Second leg, colours swapped
				fixtures = append(fixtures, newFixture(event.ID, round, roster[j], roster[i], deadline, tc))
			}
		}
	}

	return fixtures, nil
}

func newFixture(eventID int64, round int, white, black string, deadline time.Time, tc models.TimeControl) *models.Fixture {
	return &models.Fixture{
		EventID:       eventID,
		RoundNumber:   round,
		White:         white,
		Black:         black,
		Deadline:      deadline,
		TimeBase:      tc.Base,
		TimeIncrement: tc.Increment,
	}
}

// uniqueRoster drops repeated ids, keeping the first occurrence.
func uniqueRoster(roster []string) []string {
	seen := make(map[string]struct{}, len(roster))
	out := make([]string, 0, len(roster))
	for _, id := range roster {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
