package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMalformedGame = errors.New("malformed game payload")

// ExternalGameRecord - партия в том виде, в котором её отдаёт внешний источник,
// уже разобранная и проверенная на структурную корректность.
type ExternalGameRecord struct {
	ID            string          `json:"id"`
	WhiteID       string          `json:"white_id"`
	BlackID       string          `json:"black_id"`
	WhiteName     string          `json:"white_name"`
	BlackName     string          `json:"black_name"`
	Winner        *Color          `json:"winner,omitempty"`
	Status        string          `json:"status,omitempty"`
	CreatedAt     int64           `json:"created_at"`
	TimeBase      int             `json:"time_base"`
	TimeIncrement int             `json:"time_increment"`
	Moves         string          `json:"moves,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// PlayedAt переводит CreatedAt (миллисекунды epoch) во время UTC.
func (g *ExternalGameRecord) PlayedAt() time.Time {
	return time.UnixMilli(g.CreatedAt).UTC()
}

func (g *ExternalGameRecord) TimeControl() TimeControl {
	return TimeControl{Base: g.TimeBase, Increment: g.TimeIncrement}
}

// Outcome - цвет победителя, а если победитель не указан, ничья.
func (g *ExternalGameRecord) Outcome() Outcome {
	return OutcomeForWinner(g.Winner)
}

// WinnerID возвращает внешний id победителя, nil при ничьей.
func (g *ExternalGameRecord) WinnerID() *string {
	if g.Winner == nil {
		return nil
	}
	id := g.WhiteID
	if *g.Winner == ColorBlack {
		id = g.BlackID
	}
	return &id
}

// Статусы lichess для партий, которые ещё не закончены.
const (
	LichessStatusCreated = "created"
	LichessStatusStarted = "started"
)

// LichessGameInProgress сообщает, что у партии с таким статусом ещё нет результата.
func LichessGameInProgress(status string) bool {
	return status == LichessStatusCreated || status == LichessStatusStarted
}

type lichessUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type lichessPlayer struct {
	User *lichessUser `json:"user"`
}

type lichessGame struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
	Status    string `json:"status"`
	Winner    string `json:"winner"`
	Moves     string `json:"moves"`
	Players   struct {
		White lichessPlayer `json:"white"`
		Black lichessPlayer `json:"black"`
	} `json:"players"`
	Clock *struct {
		Initial   int `json:"initial"`
		Increment int `json:"increment"`
	} `json:"clock"`
}

// DecodeLichessGame разбирает JSON экспорта партии lichess.
// Любая структурная проблема возвращается как ErrMalformedGame.
func DecodeLichessGame(raw []byte) (*ExternalGameRecord, error) {
	var lg lichessGame
	if err := json.Unmarshal(raw, &lg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGame, err)
	}

	if strings.TrimSpace(lg.ID) == "" {
		return nil, fmt.Errorf("%w: missing game id", ErrMalformedGame)
	}
	if lg.Players.White.User == nil || lg.Players.White.User.ID == "" {
		return nil, fmt.Errorf("%w: game %s has no registered white player", ErrMalformedGame, lg.ID)
	}
	if lg.Players.Black.User == nil || lg.Players.Black.User.ID == "" {
		return nil, fmt.Errorf("%w: game %s has no registered black player", ErrMalformedGame, lg.ID)
	}
	if lg.CreatedAt <= 0 {
		return nil, fmt.Errorf("%w: game %s has no creation time", ErrMalformedGame, lg.ID)
	}
	if lg.Clock == nil {
		return nil, fmt.Errorf("%w: game %s has no clock", ErrMalformedGame, lg.ID)
	}
	if LichessGameInProgress(lg.Status) {
		return nil, fmt.Errorf("%w: game %s is not finished (status %q)", ErrMalformedGame, lg.ID, lg.Status)
	}

	record := &ExternalGameRecord{
		ID:            lg.ID,
		WhiteID:       NormalizeMemberID(lg.Players.White.User.ID),
		BlackID:       NormalizeMemberID(lg.Players.Black.User.ID),
		WhiteName:     lg.Players.White.User.Name,
		BlackName:     lg.Players.Black.User.Name,
		Status:        lg.Status,
		CreatedAt:     lg.CreatedAt,
		TimeBase:      lg.Clock.Initial,
		TimeIncrement: lg.Clock.Increment,
		Moves:         lg.Moves,
		Raw:           json.RawMessage(append([]byte(nil), raw...)),
	}

	switch lg.Winner {
	case "":
	case string(ColorWhite), string(ColorBlack):
		winner := Color(lg.Winner)
		record.Winner = &winner
	default:
		return nil, fmt.Errorf("%w: game %s has unknown winner %q", ErrMalformedGame, lg.ID, lg.Winner)
	}

	return record, nil
}
