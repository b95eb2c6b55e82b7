package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
)

var seasonStart = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu       sync.Mutex
	messages map[string][]brackets.WebSocketMessage
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{messages: make(map[string][]brackets.WebSocketMessage)}
}

func (n *recordingNotifier) BroadcastToRoom(roomID string, message interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages[roomID] = append(n.messages[roomID], message.(brackets.WebSocketMessage))
}

func (n *recordingNotifier) count(roomID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages[roomID])
}

type fakeArchiver struct {
	mu       sync.Mutex
	archived []string
	err      error
}

func (a *fakeArchiver) ArchiveGame(ctx context.Context, game *models.Game) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.archived = append(a.archived, game.ID)
	return "games/" + game.ID + ".json", nil
}

// failingRatingStore commits nothing: every rating update inside a write
// transaction fails after the game and fixture writes succeeded.
type failingRatingStore struct {
	*repositories.MemoryStore
}

func (s failingRatingStore) WithinTx(ctx context.Context, fn func(tx repositories.Repos) error) error {
	return s.MemoryStore.WithinTx(ctx, func(tx repositories.Repos) error {
		return fn(failingRepos{tx})
	})
}

type failingRepos struct{ repositories.Repos }

func (r failingRepos) Members() repositories.MemberRepository {
	return failingMembers{r.Repos.Members()}
}

type failingMembers struct{ repositories.MemberRepository }

func (failingMembers) UpdateRating(ctx context.Context, id string, rating int) error {
	return errors.New("disk full")
}

// seedLeague creates members a and b, a one-round event starting on
// seasonStart with a seven day round at 10+5, and its two fixtures.
func seedLeague(t *testing.T, store *repositories.MemoryStore) (*models.Event, []*models.Fixture) {
	t.Helper()
	ctx := context.Background()
	members := NewMemberService(store, nil, nil)
	for _, id := range []string{"a", "b"} {
		if _, err := members.CreateMember(ctx, CreateMemberInput{ID: id}); err != nil {
			t.Fatalf("create member %s: %v", id, err)
		}
	}

	events := NewEventService(store, nil, nil, nil)
	event, err := events.CreateEvent(ctx, &models.Event{
		Name:             "Spring",
		StartDate:        seasonStart,
		NRounds:          1,
		RoundsDuration:   []int{7},
		RoundsTimeFormat: []models.TimeControl{{Base: 600, Increment: 5}},
		Roster:           []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	fixtures, err := events.GenerateFixtures(ctx, event.ID)
	if err != nil {
		t.Fatalf("generate fixtures: %v", err)
	}
	if len(fixtures) != 2 {
		t.Fatalf("expected 2 fixtures, got %d", len(fixtures))
	}
	return event, fixtures
}

func gameRecord(id, white, black string, winner *models.Color, playedAt time.Time) *models.ExternalGameRecord {
	raw, _ := json.Marshal(map[string]string{"id": id})
	return &models.ExternalGameRecord{
		ID:            id,
		WhiteID:       white,
		BlackID:       black,
		Winner:        winner,
		Status:        "mate",
		CreatedAt:     playedAt.UnixMilli(),
		TimeBase:      600,
		TimeIncrement: 5,
		Raw:           raw,
	}
}

func colorPtr(c models.Color) *models.Color { return &c }

func memberRating(t *testing.T, store repositories.Store, id string) int {
	t.Helper()
	var rating int
	err := store.WithinReadTx(context.Background(), func(tx repositories.Repos) error {
		m, err := tx.Members().GetByID(context.Background(), id)
		if err != nil {
			return err
		}
		rating = m.Rating
		return nil
	})
	if err != nil {
		t.Fatalf("load member %s: %v", id, err)
	}
	return rating
}

func loadFixture(t *testing.T, store repositories.Store, id int64) *models.Fixture {
	t.Helper()
	var f *models.Fixture
	err := store.WithinReadTx(context.Background(), func(tx repositories.Repos) error {
		var err error
		f, err = tx.Fixtures().GetByID(context.Background(), id)
		return err
	})
	if err != nil {
		t.Fatalf("load fixture %d: %v", id, err)
	}
	return f
}
