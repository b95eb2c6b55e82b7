package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Dosada05/chess-league/models"
)

// LeagueFile описывает состав лиги, сезон и уже сыгранные партии.
// Используется командой leaguectl bootstrap.
type LeagueFile struct {
	Members []LeagueMember   `yaml:"members"`
	Event   LeagueEvent      `yaml:"event"`
	History []HistoricalGame `yaml:"history"`
}

type LeagueMember struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Rating int    `yaml:"rating"`
}

type LeagueRound struct {
	DurationDays int                `yaml:"duration_days"`
	TimeControl  models.TimeControl `yaml:"time_control"`
}

type LeagueEvent struct {
	Name      string        `yaml:"name"`
	StartDate string        `yaml:"start_date"`
	Active    bool          `yaml:"active"`
	Roster    []string      `yaml:"roster"`
	Rounds    []LeagueRound `yaml:"rounds"`
}

// HistoricalGame ссылается на матч по раунду и паре игроков, т.к. ID матчей
// появляются только после генерации.
type HistoricalGame struct {
	Round  int    `yaml:"round"`
	White  string `yaml:"white"`
	Black  string `yaml:"black"`
	GameID string `yaml:"game_id"`
}

var ErrInvalidLeagueFile = errors.New("invalid league file")

func LoadLeagueFile(path string) (*LeagueFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read league file %s: %w", path, err)
	}
	return ParseLeagueFile(data)
}

func ParseLeagueFile(data []byte) (*LeagueFile, error) {
	var lf LeagueFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLeagueFile, err)
	}
	if err := lf.normalize(); err != nil {
		return nil, err
	}
	return &lf, nil
}

func (lf *LeagueFile) normalize() error {
	known := make(map[string]bool, len(lf.Members))
	for i := range lf.Members {
		m := &lf.Members[i]
		m.ID = models.NormalizeMemberID(m.ID)
		if m.ID == "" {
			return fmt.Errorf("%w: member #%d has no id", ErrInvalidLeagueFile, i+1)
		}
		if known[m.ID] {
			return fmt.Errorf("%w: member %q listed twice", ErrInvalidLeagueFile, m.ID)
		}
		known[m.ID] = true
		if m.Name == "" {
			m.Name = m.ID
		}
		if m.Rating == 0 {
			m.Rating = models.DefaultRating
		}
	}

	if len(lf.Event.Roster) == 0 {
		for _, m := range lf.Members {
			lf.Event.Roster = append(lf.Event.Roster, m.ID)
		}
	}
	for i, id := range lf.Event.Roster {
		lf.Event.Roster[i] = models.NormalizeMemberID(id)
		if !known[lf.Event.Roster[i]] {
			return fmt.Errorf("%w: roster entry %q is not a listed member", ErrInvalidLeagueFile, id)
		}
	}

	for i := range lf.History {
		h := &lf.History[i]
		h.White = models.NormalizeMemberID(h.White)
		h.Black = models.NormalizeMemberID(h.Black)
		if h.GameID == "" || h.Round <= 0 || h.White == "" || h.Black == "" {
			return fmt.Errorf("%w: history entry #%d needs round, white, black and game_id", ErrInvalidLeagueFile, i+1)
		}
	}
	return nil
}

// ToEvent собирает модель сезона. Проверка инвариантов выполняется сервисом.
func (e LeagueEvent) ToEvent() (*models.Event, error) {
	start, err := models.ParseDate(e.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date %q: %v", ErrInvalidLeagueFile, e.StartDate, err)
	}
	event := &models.Event{
		Name:      e.Name,
		StartDate: start,
		Active:    e.Active,
		NRounds:   len(e.Rounds),
		Roster:    append([]string(nil), e.Roster...),
	}
	for _, r := range e.Rounds {
		event.RoundsDuration = append(event.RoundsDuration, r.DurationDays)
		event.RoundsTimeFormat = append(event.RoundsTimeFormat, r.TimeControl)
	}
	return event, nil
}
