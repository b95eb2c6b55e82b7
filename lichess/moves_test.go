package lichess

import "testing"

func TestReplayMoves(t *testing.T) {
	sum, err := ReplayMoves("e4 e5 Qh5 Nc6 Bc4 Nf6 Qxf7#")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if sum.Plies != 7 {
		t.Errorf("plies = %d, want 7", sum.Plies)
	}
	want := "r1bqkb1r/pppp1Qpp/2n2n2/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 4"
	if sum.FEN != want {
		t.Errorf("fen = %q, want %q", sum.FEN, want)
	}
}

func TestReplayMovesEmpty(t *testing.T) {
	sum, err := ReplayMoves("")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Plies != 0 {
		t.Errorf("plies = %d", sum.Plies)
	}
}

func TestReplayMovesIllegal(t *testing.T) {
	if _, err := ReplayMoves("e4 e4"); err == nil {
		t.Fatal("expected error for illegal move")
	}
}
