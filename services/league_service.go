package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/lichess"
	"github.com/Dosada05/chess-league/logger"
	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/rating"
	"github.com/Dosada05/chess-league/repositories"
)

// Notifier рассылает сообщения подписчикам комнаты (WebSocket hub).
type Notifier interface {
	BroadcastToRoom(roomID string, message interface{})
}

// GameArchiver сохраняет исходные данные принятой партии.
type GameArchiver interface {
	ArchiveGame(ctx context.Context, game *models.Game) (string, error)
}

type RatingChange struct {
	MemberID string  `json:"member_id"`
	Before   int     `json:"before"`
	After    int     `json:"after"`
	Delta    float64 `json:"delta"`
}

type SubmitResultOutput struct {
	Report        models.ValidationReport `json:"validation"`
	Fixture       *models.Fixture         `json:"fixture"`
	Standings     []models.PlayerStanding `json:"standings"`
	Game          *models.Game            `json:"game,omitempty"`
	RatingChanges []RatingChange          `json:"rating_changes,omitempty"`
}

type ResultAcceptedPayload struct {
	Fixture       *models.Fixture         `json:"fixture"`
	Game          *models.Game            `json:"game"`
	RatingChanges []RatingChange          `json:"rating_changes"`
	Standings     []models.PlayerStanding `json:"standings"`
}

type LeagueService interface {
	SubmitResult(ctx context.Context, fixtureID int64, candidate *models.ExternalGameRecord) (*SubmitResultOutput, error)
	ComputeStandings(ctx context.Context) ([]models.PlayerStanding, error)
	ListFixtures(ctx context.Context, filter repositories.FixtureFilter) ([]*models.Fixture, error)
	ListGames(ctx context.Context, memberID string) ([]*models.Game, error)
}

type leagueService struct {
	store    repositories.Store
	notifier Notifier
	archiver GameArchiver
	logger   *zap.Logger
}

// NewLeagueService создаёт сервис приёма результатов. notifier и archiver могут быть nil.
func NewLeagueService(store repositories.Store, notifier Notifier, archiver GameArchiver, log *zap.Logger) LeagueService {
	return &leagueService{
		store:    store,
		notifier: notifier,
		archiver: archiver,
		logger:   logger.OrNop(log),
	}
}

// SubmitResult проверяет партию по матчу. Если все критерии выполнены, в одной
// транзакции записывает партию, закрывает матч и обновляет рейтинги обоих игроков.
// Отклонённая партия не ошибка: отчёт возвращается вместе с текущей таблицей.
func (s *leagueService) SubmitResult(ctx context.Context, fixtureID int64, candidate *models.ExternalGameRecord) (*SubmitResultOutput, error) {
	if candidate == nil {
		return nil, fmt.Errorf("%w: no game supplied", ErrMalformedGame)
	}
	log := s.logger.With(zap.Int64("fixture_id", fixtureID), zap.String("game_id", candidate.ID))

	var (
		report  models.ValidationReport
		fixture *models.Fixture
		game    *models.Game
		changes []RatingChange
	)
	err := s.store.WithinTx(ctx, func(tx repositories.Repos) error {
		// Блокировка строки матча сериализует параллельные отправки по одному матчу.
		f, err := tx.Fixtures().GetByIDForUpdate(ctx, fixtureID)
		if err != nil {
			return err
		}
		fixture = f

		report, err = NewValidator(tx.Games()).Validate(ctx, f, candidate)
		if err != nil {
			return err
		}
		if !report.Accepted {
			return nil
		}

		game, changes, err = s.recordResult(ctx, tx, f, candidate)
		return err
	})
	if err != nil {
		return nil, s.classifySubmitError(log, fixtureID, err)
	}

	if !report.Accepted {
		log.Info("game rejected", zap.Any("failed", report.Failed()))
	} else {
		accepted := *fixture
		outcome := game.Outcome
		accepted.Outcome = &outcome
		accepted.GameID = &game.ID
		fixture = &accepted
		log.Info("game accepted",
			zap.String("outcome", string(game.Outcome)),
			zap.Any("rating_changes", changes),
		)
	}

	standings, err := s.ComputeStandings(ctx)
	if err != nil {
		if report.Accepted {
			return nil, fmt.Errorf("game %s was recorded but standings could not be loaded: %w", candidate.ID, err)
		}
		return nil, err
	}

	out := &SubmitResultOutput{Report: report, Fixture: fixture, Standings: standings}
	if report.Accepted {
		out.Game = game
		out.RatingChanges = changes
		s.afterCommit(ctx, log, fixture, game, changes, standings)
	}
	return out, nil
}

func (s *leagueService) recordResult(ctx context.Context, tx repositories.Repos, f *models.Fixture, candidate *models.ExternalGameRecord) (*models.Game, []RatingChange, error) {
	outcome := candidate.Outcome()
	var winner *string
	switch outcome {
	case models.OutcomeWhite:
		winner = &f.White
	case models.OutcomeBlack:
		winner = &f.Black
	}

	game := &models.Game{
		ID:            candidate.ID,
		EventID:       f.EventID,
		FixtureID:     f.ID,
		White:         f.White,
		Black:         f.Black,
		Outcome:       outcome,
		Winner:        winner,
		TimeBase:      candidate.TimeBase,
		TimeIncrement: candidate.TimeIncrement,
		DatePlayed:    candidate.PlayedAt(),
		RawPayload:    candidate.Raw,
	}
	if candidate.Moves != "" {
		summary, err := lichess.ReplayMoves(candidate.Moves)
		if err != nil {
			s.logger.Warn("could not replay moves", zap.String("game_id", candidate.ID), zap.Error(err))
		} else {
			game.Plies = summary.Plies
			game.FinalFEN = summary.FEN
		}
	}

	if err := tx.Games().Create(ctx, game); err != nil {
		return nil, nil, err
	}
	if err := tx.Fixtures().Fulfill(ctx, f.ID, game.ID, outcome); err != nil {
		return nil, nil, err
	}

	white, black, err := lockMembers(ctx, tx.Members(), f.White, f.Black)
	if err != nil {
		return nil, nil, err
	}
	dWhite, dBlack, err := rating.ComputeDeltas(float64(white.Rating), float64(black.Rating), outcome)
	if err != nil {
		return nil, nil, err
	}

	whiteAfter, blackAfter := rating.ApplyPair(white.Rating, black.Rating, dWhite)
	changes := []RatingChange{
		{MemberID: white.ID, Before: white.Rating, After: whiteAfter, Delta: dWhite},
		{MemberID: black.ID, Before: black.Rating, After: blackAfter, Delta: dBlack},
	}
	for _, c := range changes {
		if err := tx.Members().UpdateRating(ctx, c.MemberID, c.After); err != nil {
			return nil, nil, err
		}
	}
	return game, changes, nil
}

// lockMembers блокирует обе строки участников в порядке id, чтобы результаты
// разных матчей с общими участниками не попадали в deadlock.
func lockMembers(ctx context.Context, members repositories.MemberRepository, whiteID, blackID string) (white, black *models.Member, err error) {
	first, second := whiteID, blackID
	if second < first {
		first, second = second, first
	}
	a, err := members.GetByIDForUpdate(ctx, first)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock member %s: %w", first, err)
	}
	b, err := members.GetByIDForUpdate(ctx, second)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock member %s: %w", second, err)
	}
	if a.ID == whiteID {
		return a, b, nil
	}
	return b, a, nil
}

func (s *leagueService) classifySubmitError(log *zap.Logger, fixtureID int64, err error) error {
	switch {
	case errors.Is(err, ErrFixtureNotFound):
		return fmt.Errorf("fixture %d: %w", fixtureID, err)
	case errors.Is(err, ErrInvalidOutcome):
		log.Error("invalid outcome reached rating update", zap.Error(err))
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	log.Warn("result submission rolled back", zap.Error(err))
	return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
}

func (s *leagueService) afterCommit(ctx context.Context, log *zap.Logger, fixture *models.Fixture, game *models.Game, changes []RatingChange, standings []models.PlayerStanding) {
	if s.archiver != nil && len(game.RawPayload) > 0 {
		if location, err := s.archiver.ArchiveGame(ctx, game); err != nil {
			log.Warn("failed to archive game", zap.Error(err))
		} else {
			log.Debug("game archived", zap.String("location", location))
		}
	}

	if s.notifier != nil {
		payload := ResultAcceptedPayload{Fixture: fixture, Game: game, RatingChanges: changes, Standings: standings}
		for _, room := range []string{brackets.LeagueRoom, brackets.EventRoom(fixture.EventID)} {
			s.notifier.BroadcastToRoom(room, brackets.WebSocketMessage{
				Type:    brackets.MessageResultAccepted,
				Payload: payload,
				RoomID:  room,
			})
		}
	}
}

// ComputeStandings пересчитывает таблицу из матчей и партий при каждом вызове.
// Все данные читаются из одного снимка.
func (s *leagueService) ComputeStandings(ctx context.Context) ([]models.PlayerStanding, error) {
	var (
		members  []*models.Member
		fixtures []*models.Fixture
		games    []*models.Game
	)
	err := s.store.WithinReadTx(ctx, func(tx repositories.Repos) error {
		var err error
		if members, err = tx.Members().List(ctx); err != nil {
			return err
		}
		if fixtures, err = tx.Fixtures().List(ctx, repositories.FixtureFilter{}); err != nil {
			return err
		}
		games, err = tx.Games().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load standings data: %w", err)
	}
	return BuildStandings(members, fixtures, games), nil
}

// BuildStandings собирает результаты по участникам. Порядок: рейтинг,
// затем победы, затем id участника.
func BuildStandings(members []*models.Member, fixtures []*models.Fixture, games []*models.Game) []models.PlayerStanding {
	rows := make(map[string]*models.PlayerStanding, len(members))
	standings := make([]models.PlayerStanding, 0, len(members))
	for _, m := range members {
		rows[m.ID] = &models.PlayerStanding{MemberID: m.ID, Name: m.Name, Rating: m.Rating}
	}

	for _, f := range fixtures {
		for _, id := range []string{f.White, f.Black} {
			if row, ok := rows[id]; ok {
				row.GamesRequired++
			}
		}
	}

	for _, g := range games {
		for _, side := range []struct {
			id    string
			color models.Color
		}{{g.White, models.ColorWhite}, {g.Black, models.ColorBlack}} {
			row, ok := rows[side.id]
			if !ok {
				continue
			}
			row.GamesPlayed++
			switch {
			case g.Outcome == models.OutcomeDraw:
				row.Draws++
			case string(g.Outcome) == string(side.color):
				row.Wins++
			default:
				row.Losses++
			}
		}
	}

	for _, m := range members {
		standings = append(standings, *rows[m.ID])
	}
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.MemberID < b.MemberID
	})
	return standings
}

func (s *leagueService) ListFixtures(ctx context.Context, filter repositories.FixtureFilter) ([]*models.Fixture, error) {
	var fixtures []*models.Fixture
	err := s.store.WithinReadTx(ctx, func(tx repositories.Repos) error {
		var err error
		fixtures, err = tx.Fixtures().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures: %w", err)
	}
	return fixtures, nil
}

// ListGames возвращает записанные партии, при memberID только партии этого участника.
func (s *leagueService) ListGames(ctx context.Context, memberID string) ([]*models.Game, error) {
	memberID = models.NormalizeMemberID(memberID)
	var games []*models.Game
	err := s.store.WithinReadTx(ctx, func(tx repositories.Repos) error {
		if memberID != "" {
			if _, err := tx.Members().GetByID(ctx, memberID); err != nil {
				return err
			}
		}
		all, err := tx.Games().List(ctx)
		if err != nil {
			return err
		}
		games = make([]*models.Game, 0, len(all))
		for _, g := range all {
			if memberID == "" || g.Involves(memberID) {
				games = append(games, g)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}
