package models

import (
	"encoding/json"
	"time"
)

// Game - принятая партия. ID - идентификатор партии на lichess.
// Winner равен nil только при ничьей.
type Game struct {
	ID            string          `json:"id" db:"id"`
	EventID       int64           `json:"event_id" db:"event_id"`
	FixtureID     int64           `json:"fixture_id" db:"fixture_id"`
	White         string          `json:"white" db:"white"`
	Black         string          `json:"black" db:"black"`
	Outcome       Outcome         `json:"outcome" db:"outcome"`
	Winner        *string         `json:"winner,omitempty" db:"winner"`
	TimeBase      int             `json:"time_base" db:"time_base"`
	TimeIncrement int             `json:"time_increment" db:"time_increment"`
	Plies         int             `json:"plies" db:"plies"`
	FinalFEN      string          `json:"final_fen,omitempty" db:"final_fen"`
	DatePlayed    time.Time       `json:"date_played" db:"date_played"`
	DateAdded     time.Time       `json:"date_added" db:"date_added"`
	RawPayload    json.RawMessage `json:"-" db:"raw_payload"`
}

// Involves сообщает, играл ли участник в этой партии любым цветом.
func (g *Game) Involves(memberID string) bool {
	return g.White == memberID || g.Black == memberID
}
