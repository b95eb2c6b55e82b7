package lichess

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// MoveSummary describes the final position of a replayed game.
type MoveSummary struct {
	Plies int
	FEN   string
}

// ReplayMoves plays a space separated SAN move list from the initial position.
func ReplayMoves(moves string) (MoveSummary, error) {
	game := nchess.NewGame()
	for i, mv := range strings.Fields(moves) {
		if err := game.PushNotationMove(mv, nchess.AlgebraicNotation{}, nil); err != nil {
			return MoveSummary{}, fmt.Errorf("illegal move %q at ply %d: %w", mv, i+1, err)
		}
	}
	return MoveSummary{Plies: len(game.Moves()), FEN: game.FEN()}, nil
}
