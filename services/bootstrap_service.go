package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/chess-league/lichess"
	"github.com/Dosada05/chess-league/logger"
	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
)

const replayFetchConcurrency = 4

// HistoricalGame ссылается на уже сыгранную партию lichess для конкретного матча.
type HistoricalGame struct {
	Round  int    `json:"round" yaml:"round"`
	White  string `json:"white" yaml:"white"`
	Black  string `json:"black" yaml:"black"`
	GameID string `json:"game_id" yaml:"game_id"`
}

type ReplayResult struct {
	Game      HistoricalGame           `json:"game"`
	FixtureID int64                    `json:"fixture_id,omitempty"`
	Report    *models.ValidationReport `json:"validation,omitempty"`
	Err       error                    `json:"-"`
}

func (r ReplayResult) Accepted() bool {
	return r.Err == nil && r.Report != nil && r.Report.Accepted
}

type BootstrapService interface {
	Replay(ctx context.Context, eventID int64, games []HistoricalGame) ([]ReplayResult, error)
}

type bootstrapService struct {
	store  repositories.Store
	source lichess.GameSource
	league LeagueService
	logger *zap.Logger
}

func NewBootstrapService(store repositories.Store, source lichess.GameSource, league LeagueService, log *zap.Logger) BootstrapService {
	return &bootstrapService{store: store, source: source, league: league, logger: logger.OrNop(log)}
}

// Replay загружает исторические партии параллельно, но подаёт их в
// SubmitResult строго по порядку, чтобы рейтинги считались в исходной
// последовательности. Ошибка одной записи не прерывает пакет.
func (s *bootstrapService) Replay(ctx context.Context, eventID int64, games []HistoricalGame) ([]ReplayResult, error) {
	results := make([]ReplayResult, len(games))
	for i, g := range games {
		g.White = models.NormalizeMemberID(g.White)
		g.Black = models.NormalizeMemberID(g.Black)
		results[i].Game = g
	}

	err := s.store.WithinReadTx(ctx, func(tx repositories.Repos) error {
		if _, err := tx.Events().GetByID(ctx, eventID); err != nil {
			return err
		}
		for i := range results {
			g := results[i].Game
			f, err := tx.Fixtures().FindByPairing(ctx, eventID, g.Round, g.White, g.Black)
			if err != nil {
				results[i].Err = fmt.Errorf("round %d %s vs %s: %w", g.Round, g.White, g.Black, err)
				continue
			}
			results[i].FixtureID = f.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := make([]*models.ExternalGameRecord, len(results))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(replayFetchConcurrency)
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		group.Go(func() error {
			raw, err := s.source.GetGame(gctx, results[i].Game.GameID)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i].Err = fmt.Errorf("%w: %w", ErrGameSourceUnavailable, err)
				return nil
			}
			rec, err := models.DecodeLichessGame(raw)
			if err != nil {
				results[i].Err = err
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	accepted := 0
	for i := range results {
		if results[i].Err != nil {
			s.logger.Warn("historical game skipped",
				zap.String("game_id", results[i].Game.GameID), zap.Error(results[i].Err))
			continue
		}
		out, err := s.league.SubmitResult(ctx, results[i].FixtureID, records[i])
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			results[i].Err = err
			continue
		}
		report := out.Report
		results[i].Report = &report
		if report.Accepted {
			accepted++
		}
	}

	s.logger.Info("historical games replayed",
		zap.Int64("event_id", eventID),
		zap.Int("total", len(results)),
		zap.Int("accepted", accepted),
	)
	return results, nil
}
