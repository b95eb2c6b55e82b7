package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/chess-league/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type postgresEventRepository struct {
	exec SQLExecutor
}

func NewPostgresEventRepository(exec SQLExecutor) EventRepository {
	return &postgresEventRepository{exec: exec}
}

const eventColumns = `id, name, start_date, start_timestamp, active, n_rounds,
	rounds_duration, rounds_time_base, rounds_time_increment, roster, created_at`

func scanEvent(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	e := &models.Event{}
	var durations, bases, increments pq.Int64Array
	var roster pq.StringArray
	err := row.Scan(&e.ID, &e.Name, &e.StartDate, &e.StartTimestamp, &e.Active, &e.NRounds,
		&durations, &bases, &increments, &roster, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(bases) != len(increments) {
		return nil, fmt.Errorf("event %d has %d time bases and %d increments", e.ID, len(bases), len(increments))
	}
	e.StartDate = models.DateOf(e.StartDate)
	e.RoundsDuration = make([]int, len(durations))
	for i, d := range durations {
		e.RoundsDuration[i] = int(d)
	}
	e.RoundsTimeFormat = make([]models.TimeControl, len(bases))
	for i := range bases {
		e.RoundsTimeFormat[i] = models.TimeControl{Base: int(bases[i]), Increment: int(increments[i])}
	}
	e.Roster = []string(roster)
	return e, nil
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	durations := make(pq.Int64Array, len(event.RoundsDuration))
	for i, d := range event.RoundsDuration {
		durations[i] = int64(d)
	}
	bases := make(pq.Int64Array, len(event.RoundsTimeFormat))
	increments := make(pq.Int64Array, len(event.RoundsTimeFormat))
	for i, tc := range event.RoundsTimeFormat {
		bases[i] = int64(tc.Base)
		increments[i] = int64(tc.Increment)
	}

	query := `
		INSERT INTO events
			(name, start_date, active, n_rounds, rounds_duration, rounds_time_base, rounds_time_increment, roster)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, start_timestamp, created_at`

	err := r.exec.QueryRowContext(ctx, query,
		event.Name,
		models.DateOf(event.StartDate),
		event.Active,
		event.NRounds,
		durations,
		bases,
		increments,
		pq.StringArray(event.Roster),
	).Scan(&event.ID, &event.StartTimestamp, &event.CreatedAt)
	if err != nil {
		return mapConstraintError(fmt.Errorf("failed to create event %q: %w", event.Name, err), nil, nil)
	}
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	e, err := scanEvent(r.exec.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event by id %d: %w", id, err)
	}
	return e, nil
}

func (r *postgresEventRepository) List(ctx context.Context) ([]*models.Event, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

func (r *postgresEventRepository) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := r.exec.ExecContext(ctx, `UPDATE events SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update active flag for event %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}
