package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Dosada05/chess-league/lichess"
	"github.com/Dosada05/chess-league/logger"
	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
)

// ProfileFetcher загружает публичные профили lichess.
type ProfileFetcher interface {
	GetUsers(ctx context.Context, ids []string) ([]lichess.User, error)
}

type CreateMemberInput struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Rating *int   `json:"rating"`
}

type MemberService interface {
	CreateMember(ctx context.Context, input CreateMemberInput) (*models.Member, error)
	GetMember(ctx context.Context, id string) (*models.Member, error)
	ListMembers(ctx context.Context) ([]*models.Member, error)
	ImportFromLichess(ctx context.Context, ids []string) ([]*models.Member, error)
}

type memberService struct {
	store    repositories.Store
	profiles ProfileFetcher
	logger   *zap.Logger
}

// NewMemberService создаёт сервис участников. profiles может быть nil,
// тогда ImportFromLichess возвращает ErrGameSourceUnavailable.
func NewMemberService(store repositories.Store, profiles ProfileFetcher, log *zap.Logger) MemberService {
	return &memberService{store: store, profiles: profiles, logger: logger.OrNop(log)}
}

func (s *memberService) CreateMember(ctx context.Context, input CreateMemberInput) (*models.Member, error) {
	member := &models.Member{
		ID:     models.NormalizeMemberID(input.ID),
		Name:   strings.TrimSpace(input.Name),
		Rating: models.DefaultRating,
	}
	if member.ID == "" {
		return nil, ErrMemberIDRequired
	}
	if member.Name == "" {
		member.Name = member.ID
	}
	if input.Rating != nil {
		if *input.Rating <= 0 {
			return nil, fmt.Errorf("%w: rating must be positive", ErrValidationFailed)
		}
		member.Rating = *input.Rating
	}

	err := s.store.WithinTx(ctx, func(tx repositories.Repos) error {
		return tx.Members().Create(ctx, member)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("member created", zap.String("member_id", member.ID), zap.Int("rating", member.Rating))
	return member, nil
}

func (s *memberService) GetMember(ctx context.Context, id string) (*models.Member, error) {
	var member *models.Member
	err := s.store.WithinReadTx(ctx, func(tx repositories.Repos) error {
		var err error
		member, err = tx.Members().GetByID(ctx, models.NormalizeMemberID(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *memberService) ListMembers(ctx context.Context) ([]*models.Member, error) {
	var members []*models.Member
	err := s.store.WithinReadTx(ctx, func(tx repositories.Repos) error {
		var err error
		members, err = tx.Members().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// ImportFromLichess создаёт недостающих участников по профилям lichess и
// обновляет рейтинги rapid/blitz у существующих. Рейтинг лиги не меняется.
// Если хотя бы один профиль не найден, ничего не сохраняется.
func (s *memberService) ImportFromLichess(ctx context.Context, ids []string) ([]*models.Member, error) {
	if s.profiles == nil {
		return nil, fmt.Errorf("%w: lichess client not configured", ErrGameSourceUnavailable)
	}
	wanted := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = models.NormalizeMemberID(id)
		if id != "" && !seen[id] {
			seen[id] = true
			wanted = append(wanted, id)
		}
	}
	if len(wanted) == 0 {
		return []*models.Member{}, nil
	}

	users, err := s.profiles.GetUsers(ctx, wanted)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGameSourceUnavailable, err)
	}
	byID := make(map[string]lichess.User, len(users))
	for _, u := range users {
		byID[models.NormalizeMemberID(u.ID)] = u
	}
	var missing []string
	for _, id := range wanted {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w on lichess: %s", ErrMemberNotFound, strings.Join(missing, ", "))
	}

	imported := make([]*models.Member, 0, len(wanted))
	err = s.store.WithinTx(ctx, func(tx repositories.Repos) error {
		imported = imported[:0]
		for _, id := range wanted {
			u := byID[id]
			rapid, blitz := perfRating(u.Perfs.Rapid), perfRating(u.Perfs.Blitz)

			existing, err := tx.Members().GetByID(ctx, id)
			switch {
			case err == nil:
				if err := tx.Members().UpdateLichessProfile(ctx, id, u.Username, rapid, blitz); err != nil {
					return err
				}
				existing.LichessUsername, existing.RapidRating, existing.BlitzRating = u.Username, rapid, blitz
				imported = append(imported, existing)
			case errors.Is(err, ErrMemberNotFound):
				m := &models.Member{
					ID:              id,
					Name:            u.Username,
					Rating:          models.DefaultRating,
					LichessUsername: u.Username,
					RapidRating:     rapid,
					BlitzRating:     blitz,
				}
				if err := tx.Members().Create(ctx, m); err != nil {
					return err
				}
				imported = append(imported, m)
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("members imported from lichess", zap.Int("count", len(imported)))
	return imported, nil
}

func perfRating(p *lichess.Perf) *int {
	if p == nil {
		return nil
	}
	r := p.Rating
	return &r
}
