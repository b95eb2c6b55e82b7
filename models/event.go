package models

import (
	"errors"
	"fmt"
	"time"
)

// TimeControl - контроль времени партии в секундах.
type TimeControl struct {
	Base      int `json:"base" yaml:"base"`
	Increment int `json:"increment" yaml:"increment"`
}

func (tc TimeControl) String() string {
	return fmt.Sprintf("%d+%d", tc.Base, tc.Increment)
}

var (
	ErrEventRoundsMismatch   = errors.New("rounds_duration and rounds_time_format must both have n_rounds entries")
	ErrEventNameRequired     = errors.New("event name is required")
	ErrEventInvalidDuration  = errors.New("round duration must be positive")
	ErrEventInvalidTimeFmt   = errors.New("time control values must not be negative")
	ErrEventInvalidNumRounds = errors.New("n_rounds must not be negative")
)

// Event представляет сезон лиги: набор раундов с дедлайнами и контролем времени.
type Event struct {
	ID               int64         `json:"id" db:"id"`
	Name             string        `json:"name" db:"name"`
	StartDate        time.Time     `json:"start_date" db:"start_date"`
	StartTimestamp   time.Time     `json:"start_timestamp" db:"start_timestamp"`
	Active           bool          `json:"active" db:"active"`
	NRounds          int           `json:"n_rounds" db:"n_rounds"`
	RoundsDuration   []int         `json:"rounds_duration" db:"rounds_duration"`
	RoundsTimeFormat []TimeControl `json:"rounds_time_format" db:"-"`
	Roster           []string      `json:"roster" db:"roster"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
}

// Validate проверяет название и параметры раундов. Состав участников проверяет сервис.
func (e *Event) Validate() error {
	if e.Name == "" {
		return ErrEventNameRequired
	}
	return e.ValidateRounds()
}

// ValidateRounds проверяет, что у каждого раунда есть длительность и контроль времени.
func (e *Event) ValidateRounds() error {
	if e.NRounds < 0 {
		return ErrEventInvalidNumRounds
	}
	if len(e.RoundsDuration) != e.NRounds || len(e.RoundsTimeFormat) != e.NRounds {
		return fmt.Errorf("%w (n_rounds=%d, durations=%d, time formats=%d)",
			ErrEventRoundsMismatch, e.NRounds, len(e.RoundsDuration), len(e.RoundsTimeFormat))
	}
	for i, d := range e.RoundsDuration {
		if d <= 0 {
			return fmt.Errorf("%w: round %d has %d days", ErrEventInvalidDuration, i+1, d)
		}
	}
	for i, tc := range e.RoundsTimeFormat {
		if tc.Base < 0 || tc.Increment < 0 {
			return fmt.Errorf("%w: round %d has %s", ErrEventInvalidTimeFmt, i+1, tc)
		}
	}
	return nil
}

// RoundDeadline возвращает StartDate плюс длительность раунда (нумерация с 1).
func (e *Event) RoundDeadline(round int) time.Time {
	return DateOf(e.StartDate).AddDate(0, 0, e.RoundsDuration[round-1])
}
