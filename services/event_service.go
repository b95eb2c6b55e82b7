package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/logger"
	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
)

type EventService interface {
	CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	ListEvents(ctx context.Context) ([]*models.Event, error)
	SetActive(ctx context.Context, id int64, active bool) (*models.Event, error)
	GenerateFixtures(ctx context.Context, eventID int64) ([]*models.Fixture, error)
}

type eventService struct {
	store     repositories.Store
	generator brackets.FixtureGenerator
	notifier  Notifier
	logger    *zap.Logger
}

func NewEventService(store repositories.Store, generator brackets.FixtureGenerator, notifier Notifier, log *zap.Logger) EventService {
	if generator == nil {
		generator = brackets.NewRoundRobinGenerator()
	}
	return &eventService{
		store:     store,
		generator: generator,
		notifier:  notifier,
		logger:    logger.OrNop(log),
	}
}

// CreateEvent проверяет инварианты раундов и состав, затем сохраняет сезон.
func (s *eventService) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	event.Name = strings.TrimSpace(event.Name)
	event.StartDate = models.DateOf(event.StartDate)
	for i, id := range event.Roster {
		event.Roster[i] = models.NormalizeMemberID(id)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	err := s.store.WithinTx(ctx, func(tx repositories.Repos) error {
		for _, id := range event.Roster {
			if _, err := tx.Members().GetByID(ctx, id); err != nil {
				return fmt.Errorf("roster member %q: %w", id, err)
			}
		}
		return tx.Events().Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("event created",
		zap.Int64("event_id", event.ID),
		zap.String("name", event.Name),
		zap.Int("rounds", event.NRounds),
		zap.Int("roster", len(event.Roster)),
	)
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	var event *models.Event
	err := s.store.WithinReadTx(ctx, func(tx repositories.Repos) error {
		var err error
		event, err = tx.Events().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]*models.Event, error) {
	var events []*models.Event
	err := s.store.WithinReadTx(ctx, func(tx repositories.Repos) error {
		var err error
		events, err = tx.Events().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *eventService) SetActive(ctx context.Context, id int64, active bool) (*models.Event, error) {
	var event *models.Event
	err := s.store.WithinTx(ctx, func(tx repositories.Repos) error {
		if err := tx.Events().SetActive(ctx, id, active); err != nil {
			return err
		}
		var err error
		event, err = tx.Events().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// GenerateFixtures строит расписание сезона один раз и сохраняет его в одной транзакции.
func (s *eventService) GenerateFixtures(ctx context.Context, eventID int64) ([]*models.Fixture, error) {
	var fixtures []*models.Fixture
	err := s.store.WithinTx(ctx, func(tx repositories.Repos) error {
		event, err := tx.Events().GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		existing, err := tx.Fixtures().CountByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrFixturesAlreadyGenerated
		}

		fixtures, err = s.generator.GenerateFixtures(ctx, brackets.GenerateFixturesParams{
			Event:  event,
			Roster: event.Roster,
		})
		if err != nil {
			return fmt.Errorf("failed to generate fixtures for event %d: %w", eventID, err)
		}
		return tx.Fixtures().BatchCreate(ctx, fixtures)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("fixtures generated",
		zap.Int64("event_id", eventID),
		zap.String("generator", s.generator.GetName()),
		zap.Int("fixtures", len(fixtures)),
	)
	if s.notifier != nil {
		room := brackets.EventRoom(eventID)
		s.notifier.BroadcastToRoom(room, brackets.WebSocketMessage{
			Type:    brackets.MessageFixturesReady,
			Payload: fixtures,
			RoomID:  room,
		})
	}
	return fixtures, nil
}
