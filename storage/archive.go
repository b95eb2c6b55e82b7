package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/chess-league/models"
)

const gameContentType = "application/json"

// GameArchive сохраняет исходный JSON принятых партий в объектное хранилище.
type GameArchive struct {
	uploader FileUploader
}

func NewGameArchive(uploader FileUploader) *GameArchive {
	return &GameArchive{uploader: uploader}
}

// GameKey возвращает ключ объекта архивной партии.
func GameKey(eventID int64, gameID string) string {
	return fmt.Sprintf("games/event_%d/%s.json", eventID, gameID)
}

// ArchiveGame загружает исходный JSON и возвращает его публичный URL.
func (a *GameArchive) ArchiveGame(ctx context.Context, game *models.Game) (string, error) {
	if len(game.RawPayload) == 0 {
		return "", errors.New("game has no raw payload to archive")
	}
	res, err := a.uploader.Upload(ctx, GameKey(game.EventID, game.ID), gameContentType, bytes.NewReader(game.RawPayload))
	if err != nil {
		return "", err
	}
	return res.Location, nil
}
