package models

import (
	"errors"
	"fmt"
)

// Color обозначает цвет фигур игрока в партии.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// Outcome представляет итог партии, соответствует колонке outcome в БД.
type Outcome string

const (
	OutcomeWhite Outcome = "white"
	OutcomeBlack Outcome = "black"
	OutcomeDraw  Outcome = "draw"
)

var ErrInvalidOutcome = errors.New("invalid game outcome")

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeWhite, OutcomeBlack, OutcomeDraw:
		return true
	}
	return false
}

// ParseOutcome возвращает ErrInvalidOutcome для любых значений кроме white, black и draw.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !o.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
	}
	return o, nil
}

// OutcomeForWinner переводит цвет победителя в итог партии. Без победителя - ничья.
func OutcomeForWinner(winner *Color) Outcome {
	if winner == nil {
		return OutcomeDraw
	}
	switch *winner {
	case ColorWhite:
		return OutcomeWhite
	case ColorBlack:
		return OutcomeBlack
	}
	return Outcome(*winner)
}
