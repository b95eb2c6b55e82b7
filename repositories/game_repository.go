package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/chess-league/models"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameAlreadyExists = errors.New("game already recorded")
	ErrGameMemberInvalid = errors.New("game references unknown member or event")
)

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id string) (*models.Game, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*models.Game, error)
}

type postgresGameRepository struct {
	exec SQLExecutor
}

func NewPostgresGameRepository(exec SQLExecutor) GameRepository {
	return &postgresGameRepository{exec: exec}
}

const gameColumns = `id, event_id, fixture_id, white, black, outcome, winner, time_base, time_increment,
	plies, final_fen, date_played, date_added, raw_payload`

func scanGame(row interface{ Scan(...interface{}) error }) (*models.Game, error) {
	g := &models.Game{}
	var outcome string
	var winner sql.NullString
	var raw []byte
	err := row.Scan(&g.ID, &g.EventID, &g.FixtureID, &g.White, &g.Black, &outcome, &winner,
		&g.TimeBase, &g.TimeIncrement, &g.Plies, &g.FinalFEN, &g.DatePlayed, &g.DateAdded, &raw)
	if err != nil {
		return nil, err
	}
	g.Outcome = models.Outcome(outcome)
	if winner.Valid {
		w := winner.String
		g.Winner = &w
	}
	g.RawPayload = raw
	return g, nil
}

func (r *postgresGameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games
			(id, event_id, fixture_id, white, black, outcome, winner, time_base, time_increment,
			 plies, final_fen, date_played, raw_payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
		RETURNING date_added`

	var raw interface{}
	if len(game.RawPayload) > 0 {
		raw = []byte(game.RawPayload)
	}

	err := r.exec.QueryRowContext(ctx, query,
		game.ID, game.EventID, game.FixtureID, game.White, game.Black, string(game.Outcome), game.Winner,
		game.TimeBase, game.TimeIncrement, game.Plies, game.FinalFEN, game.DatePlayed, raw,
	).Scan(&game.DateAdded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGameAlreadyExists
		}
		return mapConstraintError(fmt.Errorf("failed to create game %s: %w", game.ID, err), ErrGameAlreadyExists, ErrGameMemberInvalid)
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id string) (*models.Game, error) {
	g, err := scanGame(r.exec.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game by id %s: %w", id, err)
	}
	return g, nil
}

func (r *postgresGameRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check game %s: %w", id, err)
	}
	return exists, nil
}

func (r *postgresGameRepository) List(ctx context.Context) ([]*models.Game, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT `+gameColumns+` FROM games ORDER BY date_played ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game rows: %w", err)
	}
	return games, nil
}
