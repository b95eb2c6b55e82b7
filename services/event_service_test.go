package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
)

func newRosterStore(t *testing.T, ids ...string) *repositories.MemoryStore {
	t.Helper()
	store := repositories.NewMemoryStore()
	members := NewMemberService(store, nil, nil)
	for _, id := range ids {
		if _, err := members.CreateMember(context.Background(), CreateMemberInput{ID: id}); err != nil {
			t.Fatalf("create member %s: %v", id, err)
		}
	}
	return store
}

func twoRoundEvent(roster ...string) *models.Event {
	return &models.Event{
		Name:             " Autumn ",
		StartDate:        seasonStart,
		NRounds:          2,
		RoundsDuration:   []int{7, 14},
		RoundsTimeFormat: []models.TimeControl{{Base: 600, Increment: 5}, {Base: 900, Increment: 10}},
		Roster:           roster,
	}
}

func TestGenerateFixtures(t *testing.T) {
	ctx := context.Background()
	store := newRosterStore(t, "a", "b", "c", "d")
	notifier := newRecordingNotifier()
	svc := NewEventService(store, nil, notifier, nil)

	event, err := svc.CreateEvent(ctx, twoRoundEvent("a", "B", "c", "d"))
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if event.Name != "Autumn" || event.Roster[1] != "b" {
		t.Errorf("event not normalised: %+v", event)
	}

	fixtures, err := svc.GenerateFixtures(ctx, event.ID)
	if err != nil {
		t.Fatalf("GenerateFixtures: %v", err)
	}
	// n(n-1) fixtures per round.
	if len(fixtures) != 2*4*3 {
		t.Fatalf("expected 24 fixtures, got %d", len(fixtures))
	}
	for _, f := range fixtures {
		if f.ID == 0 {
			t.Fatal("fixtures must be persisted with ids")
		}
		if f.RoundNumber == 2 && (f.TimeBase != 900 || !f.Deadline.Equal(seasonStart.AddDate(0, 0, 14))) {
			t.Errorf("round 2 fixture has wrong parameters: %+v", f)
		}
	}
	if notifier.count(brackets.EventRoom(event.ID)) != 1 {
		t.Error("expected fixtures broadcast to event room")
	}

	if _, err := svc.GenerateFixtures(ctx, event.ID); !errors.Is(err, ErrFixturesAlreadyGenerated) {
		t.Errorf("expected ErrFixturesAlreadyGenerated, got %v", err)
	}
}

func TestCreateEventValidation(t *testing.T) {
	ctx := context.Background()
	store := newRosterStore(t, "a", "b")
	svc := NewEventService(store, nil, nil, nil)

	bad := twoRoundEvent("a", "b")
	bad.RoundsDuration = []int{7}
	if _, err := svc.CreateEvent(ctx, bad); !errors.Is(err, ErrValidationFailed) || !errors.Is(err, models.ErrEventRoundsMismatch) {
		t.Errorf("expected rounds mismatch validation error, got %v", err)
	}

	if _, err := svc.CreateEvent(ctx, twoRoundEvent("a", "ghost")); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound for unknown roster member, got %v", err)
	}

	events, err := svc.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("failed creations must not persist, got %d events", len(events))
	}
}

func TestSetActive(t *testing.T) {
	ctx := context.Background()
	store := newRosterStore(t, "a", "b")
	svc := NewEventService(store, nil, nil, nil)

	event, err := svc.CreateEvent(ctx, twoRoundEvent("a", "b"))
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	updated, err := svc.SetActive(ctx, event.ID, true)
	if err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if !updated.Active {
		t.Error("event should be active")
	}
	if _, err := svc.SetActive(ctx, 42, true); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
	if _, err := svc.GenerateFixtures(ctx, 42); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}
