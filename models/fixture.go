package models

import "time"

// Fixture - запланированная партия между двумя участниками в рамках раунда.
// Outcome и GameID либо оба nil, либо оба заполнены.
type Fixture struct {
	ID            int64     `json:"id" db:"id"`
	EventID       int64     `json:"event_id" db:"event_id"`
	RoundNumber   int       `json:"round_number" db:"round_number"`
	White         string    `json:"white" db:"white"`
	Black         string    `json:"black" db:"black"`
	Deadline      time.Time `json:"deadline" db:"deadline"`
	TimeBase      int       `json:"time_base" db:"time_base"`
	TimeIncrement int       `json:"time_increment" db:"time_increment"`
	Outcome       *Outcome  `json:"outcome,omitempty" db:"outcome"`
	GameID        *string   `json:"game_id,omitempty" db:"game_id"`
}

func (f *Fixture) Fulfilled() bool {
	return f.GameID != nil
}

func (f *Fixture) TimeControl() TimeControl {
	return TimeControl{Base: f.TimeBase, Increment: f.TimeIncrement}
}

// ColorOf возвращает цвет, которым участник играет в этом матче.
func (f *Fixture) ColorOf(memberID string) (Color, bool) {
	switch memberID {
	case f.White:
		return ColorWhite, true
	case f.Black:
		return ColorBlack, true
	}
	return "", false
}
