package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dosada05/chess-league/models"
)

// GameLookup проверяет, записана ли уже партия.
type GameLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Validator проверяет партию-кандидата на соответствие матчу.
type Validator struct {
	games GameLookup
}

func NewValidator(games GameLookup) *Validator {
	return &Validator{games: games}
}

// Validate сначала проверяет, записана ли партия-кандидат, затем вычисляет
// все критерии. Ошибка поиска прерывает вызов до вычисления критериев.
func (v *Validator) Validate(ctx context.Context, fixture *models.Fixture, candidate *models.ExternalGameRecord) (models.ValidationReport, error) {
	exists, err := v.games.Exists(ctx, candidate.ID)
	if err != nil {
		return models.ValidationReport{}, fmt.Errorf("failed to check whether game %s is recorded: %w", candidate.ID, err)
	}
	return EvaluateCriteria(fixture, candidate, exists), nil
}

// EvaluateCriteria вычисляет все пять проверок, не останавливаясь на первой неудачной.
func EvaluateCriteria(fixture *models.Fixture, candidate *models.ExternalGameRecord, alreadyRecorded bool) models.ValidationReport {
	notFulfilled := !fixture.Fulfilled()

	validMembers := strings.EqualFold(candidate.WhiteID, fixture.White) &&
		strings.EqualFold(candidate.BlackID, fixture.Black)

	newGame := !alreadyRecorded

	withinDeadline := !models.DateOf(candidate.PlayedAt()).After(models.DateOf(fixture.Deadline))

	correctTimeFormat := candidate.TimeControl() == fixture.TimeControl()

	return models.NewValidationReport(notFulfilled, validMembers, newGame, withinDeadline, correctTimeFormat)
}
