package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Dosada05/chess-league/app"
	"github.com/Dosada05/chess-league/config"
	"github.com/Dosada05/chess-league/logger"
	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/services"
)

type bootstrapSummary struct {
	Event    *models.Event
	Fixtures int
	Replay   []services.ReplayResult
}

// runBootstrap создаёт участников (существующие пропускаются), сезон и его
// расписание, затем прогоняет историю партий через приём результатов.
func runBootstrap(ctx context.Context, a *app.App, lf *config.LeagueFile, importLichess bool, log *zap.Logger) (*bootstrapSummary, error) {
	log = logger.OrNop(log)
	ids := make([]string, 0, len(lf.Members))
	for _, m := range lf.Members {
		rating := m.Rating
		_, err := a.Members.CreateMember(ctx, services.CreateMemberInput{ID: m.ID, Name: m.Name, Rating: &rating})
		switch {
		case err == nil:
		case errors.Is(err, services.ErrMemberConflict):
			log.Info("member already exists, skipped", zap.String("member_id", m.ID))
		default:
			return nil, fmt.Errorf("create member %s: %w", m.ID, err)
		}
		ids = append(ids, m.ID)
	}

	if importLichess {
		if _, err := a.Members.ImportFromLichess(ctx, ids); err != nil {
			return nil, fmt.Errorf("import lichess profiles: %w", err)
		}
	}

	event, err := lf.Event.ToEvent()
	if err != nil {
		return nil, err
	}
	event, err = a.Events.CreateEvent(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	fixtures, err := a.Events.GenerateFixtures(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("generate fixtures: %w", err)
	}

	history := make([]services.HistoricalGame, 0, len(lf.History))
	for _, h := range lf.History {
		history = append(history, services.HistoricalGame{Round: h.Round, White: h.White, Black: h.Black, GameID: h.GameID})
	}
	results, err := a.Bootstrap.Replay(ctx, event.ID, history)
	if err != nil {
		return nil, fmt.Errorf("replay history: %w", err)
	}

	return &bootstrapSummary{Event: event, Fixtures: len(fixtures), Replay: results}, nil
}
