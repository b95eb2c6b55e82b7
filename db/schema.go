package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schema создаёт таблицы лиги. Все выражения идемпотентны.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		rating           INTEGER NOT NULL DEFAULT 1000,
		lichess_username TEXT NOT NULL DEFAULT '',
		rapid_rating     INTEGER,
		blitz_rating     INTEGER,
		joined_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id                    BIGSERIAL PRIMARY KEY,
		name                  TEXT NOT NULL,
		start_date            DATE NOT NULL,
		start_timestamp       TIMESTAMPTZ NOT NULL DEFAULT now(),
		active                BOOLEAN NOT NULL DEFAULT false,
		n_rounds              INTEGER NOT NULL CHECK (n_rounds >= 0),
		rounds_duration       INTEGER[] NOT NULL,
		rounds_time_base      INTEGER[] NOT NULL,
		rounds_time_increment INTEGER[] NOT NULL,
		roster                TEXT[] NOT NULL,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (cardinality(rounds_duration) = n_rounds),
		CHECK (cardinality(rounds_time_base) = n_rounds),
		CHECK (cardinality(rounds_time_increment) = n_rounds)
	)`,
	`CREATE TABLE IF NOT EXISTS games (
		id             TEXT PRIMARY KEY,
		event_id       BIGINT NOT NULL REFERENCES events(id),
		fixture_id     BIGINT NOT NULL,
		white          TEXT NOT NULL REFERENCES members(id),
		black          TEXT NOT NULL REFERENCES members(id),
		outcome        TEXT NOT NULL CHECK (outcome IN ('white', 'black', 'draw')),
		winner         TEXT REFERENCES members(id),
		time_base      INTEGER NOT NULL,
		time_increment INTEGER NOT NULL,
		plies          INTEGER NOT NULL DEFAULT 0,
		final_fen      TEXT NOT NULL DEFAULT '',
		date_played    TIMESTAMPTZ NOT NULL,
		date_added     TIMESTAMPTZ NOT NULL DEFAULT now(),
		raw_payload    JSONB,
		CHECK ((outcome = 'draw') = (winner IS NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS fixtures (
		id             BIGSERIAL PRIMARY KEY,
		event_id       BIGINT NOT NULL REFERENCES events(id),
		round_number   INTEGER NOT NULL CHECK (round_number > 0),
		white          TEXT NOT NULL REFERENCES members(id),
		black          TEXT NOT NULL REFERENCES members(id),
		deadline       DATE NOT NULL,
		time_base      INTEGER NOT NULL,
		time_increment INTEGER NOT NULL,
		outcome        TEXT CHECK (outcome IN ('white', 'black', 'draw')),
		game_id        TEXT UNIQUE REFERENCES games(id),
		CHECK (white <> black),
		CHECK ((outcome IS NULL) = (game_id IS NULL)),
		CONSTRAINT fixtures_pairing_key UNIQUE (event_id, round_number, white, black)
	)`,
	`CREATE INDEX IF NOT EXISTS fixtures_white_idx ON fixtures (white)`,
	`CREATE INDEX IF NOT EXISTS fixtures_black_idx ON fixtures (black)`,
	`CREATE INDEX IF NOT EXISTS games_white_idx ON games (white)`,
	`CREATE INDEX IF NOT EXISTS games_black_idx ON games (black)`,
}

// Migrate применяет схему в одной транзакции.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}
