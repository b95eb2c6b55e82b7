package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/chess-league/models"
)

// MemoryStore - хранилище в памяти для тестов и локального запуска без DATABASE_URL.
// Транзакция на запись держит эксклюзивную блокировку и работает с копией
// состояния, которая подменяет текущее только при успешном завершении fn.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
	now   func() time.Time
}

type memState struct {
	members       map[string]models.Member
	events        map[int64]models.Event
	fixtures      map[int64]models.Fixture
	games         map[string]models.Game
	nextEventID   int64
	nextFixtureID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memState{
			members:  make(map[string]models.Member),
			events:   make(map[int64]models.Event),
			fixtures: make(map[int64]models.Fixture),
			games:    make(map[string]models.Game),
		},
		now: time.Now,
	}
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(&memRepos{st: working, now: s.now}); err != nil {
		return err
	}
	s.state = working
	return nil
}

func (s *MemoryStore) WithinReadTx(ctx context.Context, fn func(tx Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memRepos{st: s.state, readOnly: true, now: s.now})
}

func (st *memState) clone() *memState {
	c := &memState{
		members:       make(map[string]models.Member, len(st.members)),
		events:        make(map[int64]models.Event, len(st.events)),
		fixtures:      make(map[int64]models.Fixture, len(st.fixtures)),
		games:         make(map[string]models.Game, len(st.games)),
		nextEventID:   st.nextEventID,
		nextFixtureID: st.nextFixtureID,
	}
	for k, v := range st.members {
		c.members[k] = v
	}
	for k, v := range st.events {
		c.events[k] = v
	}
	for k, v := range st.fixtures {
		c.fixtures[k] = v
	}
	for k, v := range st.games {
		c.games[k] = v
	}
	return c
}

// memRepos хранит значения, а наружу отдаёт копии, поэтому вызывающий код
// не может изменить состояние в обход репозитория.
type memRepos struct {
	st       *memState
	readOnly bool
	now      func() time.Time
}

func (r *memRepos) Members() MemberRepository   { return memMembers{r} }
func (r *memRepos) Events() EventRepository     { return memEvents{r} }
func (r *memRepos) Fixtures() FixtureRepository { return memFixtures{r} }
func (r *memRepos) Games() GameRepository       { return memGames{r} }

func (r *memRepos) writable() error {
	if r.readOnly {
		return ErrReadOnlyTx
	}
	return nil
}

type memMembers struct{ r *memRepos }

func copyMember(m models.Member) *models.Member {
	if m.RapidRating != nil {
		v := *m.RapidRating
		m.RapidRating = &v
	}
	if m.BlitzRating != nil {
		v := *m.BlitzRating
		m.BlitzRating = &v
	}
	return &m
}

func (m memMembers) Create(ctx context.Context, member *models.Member) error {
	if err := m.r.writable(); err != nil {
		return err
	}
	if _, ok := m.r.st.members[member.ID]; ok {
		return ErrMemberConflict
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = m.r.now().UTC()
	}
	m.r.st.members[member.ID] = *copyMember(*member)
	return nil
}

func (m memMembers) GetByID(ctx context.Context, id string) (*models.Member, error) {
	v, ok := m.r.st.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return copyMember(v), nil
}

func (m memMembers) GetByIDForUpdate(ctx context.Context, id string) (*models.Member, error) {
	return m.GetByID(ctx, id)
}

func (m memMembers) List(ctx context.Context) ([]*models.Member, error) {
	out := make([]*models.Member, 0, len(m.r.st.members))
	for _, v := range m.r.st.members {
		out = append(out, copyMember(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memMembers) UpdateRating(ctx context.Context, id string, rating int) error {
	if err := m.r.writable(); err != nil {
		return err
	}
	v, ok := m.r.st.members[id]
	if !ok {
		return ErrMemberNotFound
	}
	v.Rating = rating
	m.r.st.members[id] = v
	return nil
}

func (m memMembers) UpdateLichessProfile(ctx context.Context, id, username string, rapid, blitz *int) error {
	if err := m.r.writable(); err != nil {
		return err
	}
	v, ok := m.r.st.members[id]
	if !ok {
		return ErrMemberNotFound
	}
	v.LichessUsername = username
	v.RapidRating = rapid
	v.BlitzRating = blitz
	m.r.st.members[id] = *copyMember(v)
	return nil
}

type memEvents struct{ r *memRepos }

func copyEvent(e models.Event) *models.Event {
	e.RoundsDuration = append([]int(nil), e.RoundsDuration...)
	e.RoundsTimeFormat = append([]models.TimeControl(nil), e.RoundsTimeFormat...)
	e.Roster = append([]string(nil), e.Roster...)
	return &e
}

func (m memEvents) Create(ctx context.Context, event *models.Event) error {
	if err := m.r.writable(); err != nil {
		return err
	}
	m.r.st.nextEventID++
	now := m.r.now().UTC()
	event.ID = m.r.st.nextEventID
	event.StartDate = models.DateOf(event.StartDate)
	event.StartTimestamp = now
	event.CreatedAt = now
	m.r.st.events[event.ID] = *copyEvent(*event)
	return nil
}

func (m memEvents) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	v, ok := m.r.st.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return copyEvent(v), nil
}

func (m memEvents) List(ctx context.Context) ([]*models.Event, error) {
	out := make([]*models.Event, 0, len(m.r.st.events))
	for _, v := range m.r.st.events {
		out = append(out, copyEvent(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memEvents) SetActive(ctx context.Context, id int64, active bool) error {
	if err := m.r.writable(); err != nil {
		return err
	}
	v, ok := m.r.st.events[id]
	if !ok {
		return ErrEventNotFound
	}
	v.Active = active
	m.r.st.events[id] = v
	return nil
}

type memFixtures struct{ r *memRepos }

func copyFixture(f models.Fixture) *models.Fixture {
	if f.Outcome != nil {
		o := *f.Outcome
		f.Outcome = &o
	}
	if f.GameID != nil {
		id := *f.GameID
		f.GameID = &id
	}
	return &f
}

func (m memFixtures) BatchCreate(ctx context.Context, fixtures []*models.Fixture) error {
	if err := m.r.writable(); err != nil {
		return err
	}
	for _, f := range fixtures {
		if _, ok := m.r.st.events[f.EventID]; !ok {
			return ErrFixtureMemberInvalid
		}
		_, okW := m.r.st.members[f.White]
		_, okB := m.r.st.members[f.Black]
		if !okW || !okB {
			return ErrFixtureMemberInvalid
		}
		for _, existing := range m.r.st.fixtures {
			if existing.EventID == f.EventID && existing.RoundNumber == f.RoundNumber &&
				existing.White == f.White && existing.Black == f.Black {
				return ErrFixtureConflict
			}
		}
		m.r.st.nextFixtureID++
		f.ID = m.r.st.nextFixtureID
		f.Deadline = models.DateOf(f.Deadline)
		m.r.st.fixtures[f.ID] = *copyFixture(*f)
	}
	return nil
}

func (m memFixtures) GetByID(ctx context.Context, id int64) (*models.Fixture, error) {
	v, ok := m.r.st.fixtures[id]
	if !ok {
		return nil, ErrFixtureNotFound
	}
	return copyFixture(v), nil
}

func (m memFixtures) GetByIDForUpdate(ctx context.Context, id int64) (*models.Fixture, error) {
	return m.GetByID(ctx, id)
}

func (m memFixtures) FindByPairing(ctx context.Context, eventID int64, round int, white, black string) (*models.Fixture, error) {
	for _, f := range m.r.st.fixtures {
		if f.EventID == eventID && f.RoundNumber == round && f.White == white && f.Black == black {
			return copyFixture(f), nil
		}
	}
	return nil, ErrFixtureNotFound
}

func (m memFixtures) List(ctx context.Context, filter FixtureFilter) ([]*models.Fixture, error) {
	out := make([]*models.Fixture, 0)
	for _, f := range m.r.st.fixtures {
		if filter.EventID != nil && f.EventID != *filter.EventID {
			continue
		}
		if filter.Round != nil && f.RoundNumber != *filter.Round {
			continue
		}
		if filter.MemberID != "" && f.White != filter.MemberID && f.Black != filter.MemberID {
			continue
		}
		if filter.OnlyOpen && f.GameID != nil {
			continue
		}
		out = append(out, copyFixture(f))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventID != out[j].EventID {
			return out[i].EventID < out[j].EventID
		}
		if out[i].RoundNumber != out[j].RoundNumber {
			return out[i].RoundNumber < out[j].RoundNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m memFixtures) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	n := 0
	for _, f := range m.r.st.fixtures {
		if f.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (m memFixtures) Fulfill(ctx context.Context, id int64, gameID string, outcome models.Outcome) error {
	if err := m.r.writable(); err != nil {
		return err
	}
	f, ok := m.r.st.fixtures[id]
	if !ok {
		return ErrFixtureNotFound
	}
	if f.GameID != nil {
		return ErrFixtureAlreadyFulfilled
	}
	if _, ok := m.r.st.games[gameID]; !ok {
		return ErrGameNotFound
	}
	for _, other := range m.r.st.fixtures {
		if other.GameID != nil && *other.GameID == gameID {
			return ErrGameAlreadyExists
		}
	}
	f.GameID = &gameID
	f.Outcome = &outcome
	m.r.st.fixtures[id] = f
	return nil
}

type memGames struct{ r *memRepos }

func copyGame(g models.Game) *models.Game {
	if g.Winner != nil {
		w := *g.Winner
		g.Winner = &w
	}
	g.RawPayload = append([]byte(nil), g.RawPayload...)
	return &g
}

func (m memGames) Create(ctx context.Context, game *models.Game) error {
	if err := m.r.writable(); err != nil {
		return err
	}
	if _, ok := m.r.st.games[game.ID]; ok {
		return ErrGameAlreadyExists
	}
	_, okW := m.r.st.members[game.White]
	_, okB := m.r.st.members[game.Black]
	if !okW || !okB {
		return ErrGameMemberInvalid
	}
	if game.DateAdded.IsZero() {
		game.DateAdded = m.r.now().UTC()
	}
	m.r.st.games[game.ID] = *copyGame(*game)
	return nil
}

func (m memGames) GetByID(ctx context.Context, id string) (*models.Game, error) {
	v, ok := m.r.st.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return copyGame(v), nil
}

func (m memGames) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := m.r.st.games[id]
	return ok, nil
}

func (m memGames) List(ctx context.Context) ([]*models.Game, error) {
	out := make([]*models.Game, 0, len(m.r.st.games))
	for _, v := range m.r.st.games {
		out = append(out, copyGame(v))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DatePlayed.Equal(out[j].DatePlayed) {
			return out[i].DatePlayed.Before(out[j].DatePlayed)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
