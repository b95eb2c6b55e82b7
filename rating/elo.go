// Package rating implements the league's Elo adjustment.
package rating

import (
	"fmt"
	"math"

	"github.com/Dosada05/chess-league/models"
)

// KFactor is the maximum rating change for a single game.
const KFactor = 32.0

var ErrInvalidOutcome = models.ErrInvalidOutcome

// ExpectedScore returns White's expected score against Black.
func ExpectedScore(ratingWhite, ratingBlack float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingBlack-ratingWhite)/400.0))
}

func scores(outcome models.Outcome) (white, black float64, err error) {
	switch outcome {
	case models.OutcomeWhite:
		return 1, 0, nil
	case models.OutcomeBlack:
		return 0, 1, nil
	case models.OutcomeDraw:
		return 0.5, 0.5, nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
}

// ComputeDeltas returns the rating changes for White and Black. The deltas sum to zero.
func ComputeDeltas(ratingWhite, ratingBlack float64, outcome models.Outcome) (dWhite, dBlack float64, err error) {
	sWhite, sBlack, err := scores(outcome)
	if err != nil {
		return 0, 0, err
	}
	eWhite := ExpectedScore(ratingWhite, ratingBlack)
	dWhite = KFactor * (sWhite - eWhite)
	dBlack = KFactor * (sBlack - (1 - eWhite))
	return dWhite, dBlack, nil
}

// Apply adds delta to an integer rating, rounding half away from zero.
func Apply(rating int, delta float64) int {
	return int(math.Round(float64(rating) + delta))
}

// ApplyPair rounds White's new rating and gives Black the opposite change,
// so the sum of both integer ratings never changes.
func ApplyPair(ratingWhite, ratingBlack int, dWhite float64) (whiteAfter, blackAfter int) {
	whiteAfter = Apply(ratingWhite, dWhite)
	return whiteAfter, ratingBlack - (whiteAfter - ratingWhite)
}
