package models

import (
	"strings"
	"time"
)

// DefaultRating - стартовый рейтинг лиги для новых участников.
const DefaultRating = 1000

// Member представляет участника лиги. ID совпадает с идентификатором аккаунта на lichess.
type Member struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Rating          int       `json:"rating" db:"rating"`
	LichessUsername string    `json:"lichess_username,omitempty" db:"lichess_username"`
	RapidRating     *int      `json:"rapid_rating,omitempty" db:"rapid_rating"`
	BlitzRating     *int      `json:"blitz_rating,omitempty" db:"blitz_rating"`
	JoinedAt        time.Time `json:"joined_at" db:"joined_at"`
}

// NormalizeMemberID приводит идентификатор к виду, в котором его хранит lichess.
func NormalizeMemberID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
