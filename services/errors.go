package services

import (
	"errors"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
)

// Ошибки сервисного слоя, используемые в маппинге HTTP.
var (
	// Ресурс не найден
	ErrFixtureNotFound = repositories.ErrFixtureNotFound
	ErrEventNotFound   = repositories.ErrEventNotFound
	ErrMemberNotFound  = repositories.ErrMemberNotFound
	ErrGameNotFound    = repositories.ErrGameNotFound

	// Конфликты
	ErrMemberConflict           = repositories.ErrMemberConflict
	ErrFixturesAlreadyGenerated = errors.New("fixtures have already been generated for this event")

	// Невалидные данные
	ErrValidationFailed = errors.New("validation failed")
	ErrMalformedGame    = models.ErrMalformedGame
	ErrMemberIDRequired = errors.New("member id is required")

	// Ошибка программиста: итог партии вне white/black/draw. Транзакция откатывается.
	ErrInvalidOutcome = models.ErrInvalidOutcome

	// Запись не удалась и была откатана; запрос можно повторить.
	ErrPersistenceFailure = errors.New("failed to persist result, nothing was recorded; retry the request")

	// Внешний источник партий недоступен.
	ErrGameSourceUnavailable = errors.New("game source unavailable")
)
