package brackets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/chess-league/models"
)

func testEvent(rounds int) *models.Event {
	e := &models.Event{
		ID:        7,
		Name:      "Season",
		StartDate: time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC),
		NRounds:   rounds,
	}
	for r := 0; r < rounds; r++ {
		e.RoundsDuration = append(e.RoundsDuration, 7*(r+1))
		e.RoundsTimeFormat = append(e.RoundsTimeFormat, models.TimeControl{Base: 600 - 100*r, Increment: r})
	}
	return e
}

func TestGenerateFixturesCompleteness(t *testing.T) {
	gen := NewRoundRobinGenerator()
	roster := []string{"a", "b", "c", "d"}
	event := testEvent(2)

	fixtures, err := gen.GenerateFixtures(context.Background(), GenerateFixturesParams{Event: event, Roster: roster})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	n := len(roster)
	if want := event.NRounds * n * (n - 1); len(fixtures) != want {
		t.Fatalf("got %d fixtures, want %d", len(fixtures), want)
	}

	type key struct {
		round        int
		white, black string
	}
	seen := make(map[key]int)
	pairs := make(map[int]map[[2]string]int)
	for _, f := range fixtures {
		if f.White == f.Black {
			t.Fatalf("self pairing: %+v", f)
		}
		if f.EventID != event.ID {
			t.Fatalf("fixture has event %d, want %d", f.EventID, event.ID)
		}
		if f.Fulfilled() || f.Outcome != nil {
			t.Fatalf("new fixture must be open: %+v", f)
		}
		seen[key{f.RoundNumber, f.White, f.Black}]++

		a, b := f.White, f.Black
		if a > b {
			a, b = b, a
		}
		if pairs[f.RoundNumber] == nil {
			pairs[f.RoundNumber] = make(map[[2]string]int)
		}
		pairs[f.RoundNumber][[2]string{a, b}]++
	}
	for k, c := range seen {
		if c != 1 {
			t.Errorf("ordered pairing %+v generated %d times", k, c)
		}
	}
	for round, m := range pairs {
		if len(m) != n*(n-1)/2 {
			t.Errorf("round %d has %d unordered pairs, want %d", round, len(m), n*(n-1)/2)
		}
		for p, c := range m {
			if c != 2 {
				t.Errorf("round %d pair %v appears %d times, want 2", round, p, c)
			}
		}
	}
}

func TestGenerateFixturesRoundSettings(t *testing.T) {
	event := testEvent(2)
	fixtures, err := NewRoundRobinGenerator().GenerateFixtures(context.Background(), GenerateFixturesParams{
		Event:  event,
		Roster: []string{"a", "b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(fixtures) != 4 {
		t.Fatalf("got %d fixtures, want 4", len(fixtures))
	}
	for _, f := range fixtures {
		wantDeadline := event.StartDate.AddDate(0, 0, event.RoundsDuration[f.RoundNumber-1])
		if !f.Deadline.Equal(wantDeadline) {
			t.Errorf("round %d deadline = %s, want %s", f.RoundNumber, f.Deadline, wantDeadline)
		}
		if f.TimeControl() != event.RoundsTimeFormat[f.RoundNumber-1] {
			t.Errorf("round %d time control = %s", f.RoundNumber, f.TimeControl())
		}
	}
	if fixtures[0].White != "a" || fixtures[0].Black != "b" || fixtures[1].White != "b" || fixtures[1].Black != "a" {
		t.Errorf("unexpected leg order: %+v %+v", fixtures[0], fixtures[1])
	}
}

func TestGenerateFixturesDegenerate(t *testing.T) {
	gen := NewRoundRobinGenerator()
	cases := []struct {
		name   string
		event  *models.Event
		roster []string
	}{
		{"empty roster", testEvent(2), nil},
		{"single member", testEvent(2), []string{"a"}},
		{"duplicate single member", testEvent(2), []string{"a", "a"}},
		{"no rounds", testEvent(0), []string{"a", "b", "c"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fixtures, err := gen.GenerateFixtures(context.Background(), GenerateFixturesParams{Event: c.event, Roster: c.roster})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(fixtures) != 0 {
				t.Fatalf("got %d fixtures, want none", len(fixtures))
			}
		})
	}
}

func TestGenerateFixturesRejectsMismatchedRounds(t *testing.T) {
	event := testEvent(2)
	event.RoundsTimeFormat = event.RoundsTimeFormat[:1]
	_, err := NewRoundRobinGenerator().GenerateFixtures(context.Background(), GenerateFixturesParams{
		Event:  event,
		Roster: []string{"a", "b"},
	})
	if !errors.Is(err, models.ErrEventRoundsMismatch) {
		t.Fatalf("err = %v, want ErrEventRoundsMismatch", err)
	}
}
