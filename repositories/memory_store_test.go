package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/chess-league/models"
)

func seedStore(t *testing.T) (*MemoryStore, *models.Event, []*models.Fixture) {
	t.Helper()
	ctx := context.Background()
	s := NewMemoryStore()

	event := &models.Event{
		Name:             "Season",
		StartDate:        time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC),
		NRounds:          1,
		RoundsDuration:   []int{7},
		RoundsTimeFormat: []models.TimeControl{{Base: 600}},
		Roster:           []string{"a", "b"},
	}
	fixtures := []*models.Fixture{
		{RoundNumber: 1, White: "a", Black: "b", Deadline: event.RoundDeadline(1), TimeBase: 600},
		{RoundNumber: 1, White: "b", Black: "a", Deadline: event.RoundDeadline(1), TimeBase: 600},
	}

	err := s.WithinTx(ctx, func(tx Repos) error {
		for _, id := range []string{"a", "b"} {
			if err := tx.Members().Create(ctx, &models.Member{ID: id, Name: id, Rating: models.DefaultRating}); err != nil {
				return err
			}
		}
		if err := tx.Events().Create(ctx, event); err != nil {
			return err
		}
		for _, f := range fixtures {
			f.EventID = event.ID
		}
		return tx.Fixtures().BatchCreate(ctx, fixtures)
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s, event, fixtures
}

func TestMemoryStoreRollback(t *testing.T) {
	ctx := context.Background()
	s, _, fixtures := seedStore(t)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx Repos) error {
		if err := tx.Members().UpdateRating(ctx, "a", 1500); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	err = s.WithinReadTx(ctx, func(tx Repos) error {
		m, err := tx.Members().GetByID(ctx, "a")
		if err != nil {
			return err
		}
		if m.Rating != models.DefaultRating {
			t.Errorf("rating = %d after rollback, want %d", m.Rating, models.DefaultRating)
		}
		f, err := tx.Fixtures().GetByID(ctx, fixtures[0].ID)
		if err != nil {
			return err
		}
		if f.Fulfilled() {
			t.Error("fixture fulfilled after rollback")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemoryStoreFulfill(t *testing.T) {
	ctx := context.Background()
	s, event, fixtures := seedStore(t)

	err := s.WithinTx(ctx, func(tx Repos) error {
		g := &models.Game{ID: "g1", EventID: event.ID, FixtureID: fixtures[0].ID, White: "a", Black: "b", Outcome: models.OutcomeDraw}
		if err := tx.Games().Create(ctx, g); err != nil {
			return err
		}
		if err := tx.Games().Create(ctx, g); !errors.Is(err, ErrGameAlreadyExists) {
			t.Errorf("duplicate create err = %v", err)
		}
		if err := tx.Fixtures().Fulfill(ctx, fixtures[0].ID, "g1", models.OutcomeDraw); err != nil {
			return err
		}
		if err := tx.Fixtures().Fulfill(ctx, fixtures[0].ID, "g1", models.OutcomeDraw); !errors.Is(err, ErrFixtureAlreadyFulfilled) {
			t.Errorf("second fulfil err = %v", err)
		}
		if err := tx.Fixtures().Fulfill(ctx, fixtures[1].ID, "g1", models.OutcomeDraw); !errors.Is(err, ErrGameAlreadyExists) {
			t.Errorf("reuse of game err = %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	err = s.WithinReadTx(ctx, func(tx Repos) error {
		open, err := tx.Fixtures().List(ctx, FixtureFilter{OnlyOpen: true})
		if err != nil {
			return err
		}
		if len(open) != 1 || open[0].ID != fixtures[1].ID {
			t.Errorf("open fixtures = %+v", open)
		}
		f, err := tx.Fixtures().FindByPairing(ctx, event.ID, 1, "a", "b")
		if err != nil {
			return err
		}
		if f.GameID == nil || *f.GameID != "g1" || f.Outcome == nil || *f.Outcome != models.OutcomeDraw {
			t.Errorf("fulfilled fixture = %+v", f)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemoryStoreReadOnly(t *testing.T) {
	ctx := context.Background()
	s, _, _ := seedStore(t)
	err := s.WithinReadTx(ctx, func(tx Repos) error {
		return tx.Members().UpdateRating(ctx, "a", 1)
	})
	if !errors.Is(err, ErrReadOnlyTx) {
		t.Fatalf("err = %v, want ErrReadOnlyTx", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, event, _ := seedStore(t)
	err := s.WithinReadTx(ctx, func(tx Repos) error {
		e, err := tx.Events().GetByID(ctx, event.ID)
		if err != nil {
			return err
		}
		e.Roster[0] = "mutated"
		again, err := tx.Events().GetByID(ctx, event.ID)
		if err != nil {
			return err
		}
		if again.Roster[0] != "a" {
			t.Errorf("stored event mutated through returned copy")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemoryStoreFixtureFilters(t *testing.T) {
	ctx := context.Background()
	s, event, _ := seedStore(t)
	round := 1
	err := s.WithinReadTx(ctx, func(tx Repos) error {
		all, err := tx.Fixtures().List(ctx, FixtureFilter{EventID: &event.ID, Round: &round, MemberID: "a"})
		if err != nil {
			return err
		}
		if len(all) != 2 {
			t.Errorf("got %d fixtures, want 2", len(all))
		}
		none, err := tx.Fixtures().List(ctx, FixtureFilter{MemberID: "zed"})
		if err != nil {
			return err
		}
		if len(none) != 0 {
			t.Errorf("got %d fixtures for unknown member", len(none))
		}
		n, err := tx.Fixtures().CountByEvent(ctx, event.ID)
		if err != nil {
			return err
		}
		if n != 2 {
			t.Errorf("count = %d, want 2", n)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
