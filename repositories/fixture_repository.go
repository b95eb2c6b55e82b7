package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/chess-league/models"
)

var (
	ErrFixtureNotFound         = errors.New("fixture not found")
	ErrFixtureConflict         = errors.New("fixture already exists for this pairing")
	ErrFixtureAlreadyFulfilled = errors.New("fixture already fulfilled")
	ErrFixtureMemberInvalid    = errors.New("fixture references unknown member or event")
)

// FixtureFilter - необязательные условия выборки. Пустые поля не фильтруют.
type FixtureFilter struct {
	EventID  *int64
	Round    *int
	MemberID string
	OnlyOpen bool
}

type FixtureRepository interface {
	BatchCreate(ctx context.Context, fixtures []*models.Fixture) error
	GetByID(ctx context.Context, id int64) (*models.Fixture, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Fixture, error)
	FindByPairing(ctx context.Context, eventID int64, round int, white, black string) (*models.Fixture, error)
	List(ctx context.Context, filter FixtureFilter) ([]*models.Fixture, error)
	CountByEvent(ctx context.Context, eventID int64) (int, error)
	// Fulfill записывает партию и итог одновременно. Возвращает
	// ErrFixtureAlreadyFulfilled, если у матча уже есть партия.
	Fulfill(ctx context.Context, id int64, gameID string, outcome models.Outcome) error
}

type postgresFixtureRepository struct {
	exec SQLExecutor
}

func NewPostgresFixtureRepository(exec SQLExecutor) FixtureRepository {
	return &postgresFixtureRepository{exec: exec}
}

const fixtureColumns = `id, event_id, round_number, white, black, deadline, time_base, time_increment, outcome, game_id`

func scanFixture(row interface{ Scan(...interface{}) error }) (*models.Fixture, error) {
	f := &models.Fixture{}
	var outcome, gameID sql.NullString
	err := row.Scan(&f.ID, &f.EventID, &f.RoundNumber, &f.White, &f.Black, &f.Deadline,
		&f.TimeBase, &f.TimeIncrement, &outcome, &gameID)
	if err != nil {
		return nil, err
	}
	f.Deadline = models.DateOf(f.Deadline)
	if outcome.Valid {
		o := models.Outcome(outcome.String)
		f.Outcome = &o
	}
	if gameID.Valid {
		id := gameID.String
		f.GameID = &id
	}
	return f, nil
}

func (r *postgresFixtureRepository) BatchCreate(ctx context.Context, fixtures []*models.Fixture) error {
	query := `
		INSERT INTO fixtures (event_id, round_number, white, black, deadline, time_base, time_increment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	for _, f := range fixtures {
		err := r.exec.QueryRowContext(ctx, query,
			f.EventID, f.RoundNumber, f.White, f.Black, models.DateOf(f.Deadline), f.TimeBase, f.TimeIncrement,
		).Scan(&f.ID)
		if err != nil {
			return mapConstraintError(
				fmt.Errorf("failed to create fixture %s vs %s (event %d, round %d): %w", f.White, f.Black, f.EventID, f.RoundNumber, err),
				ErrFixtureConflict, ErrFixtureMemberInvalid)
		}
	}
	return nil
}

func (r *postgresFixtureRepository) GetByID(ctx context.Context, id int64) (*models.Fixture, error) {
	return r.get(ctx, `SELECT `+fixtureColumns+` FROM fixtures WHERE id = $1`, id)
}

// GetByIDForUpdate блокирует строку матча до конца транзакции.
func (r *postgresFixtureRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Fixture, error) {
	return r.get(ctx, `SELECT `+fixtureColumns+` FROM fixtures WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresFixtureRepository) get(ctx context.Context, query string, args ...interface{}) (*models.Fixture, error) {
	f, err := scanFixture(r.exec.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFixtureNotFound
		}
		return nil, fmt.Errorf("failed to scan fixture: %w", err)
	}
	return f, nil
}

func (r *postgresFixtureRepository) FindByPairing(ctx context.Context, eventID int64, round int, white, black string) (*models.Fixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures
		WHERE event_id = $1 AND round_number = $2 AND white = $3 AND black = $4`
	return r.get(ctx, query, eventID, round, white, black)
}

func (r *postgresFixtureRepository) List(ctx context.Context, filter FixtureFilter) ([]*models.Fixture, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + fixtureColumns + ` FROM fixtures WHERE 1=1`)

	args := []interface{}{}
	placeholderIndex := 1

	if filter.EventID != nil {
		queryBuilder.WriteString(" AND event_id = $" + strconv.Itoa(placeholderIndex))
		args = append(args, *filter.EventID)
		placeholderIndex++
	}
	if filter.Round != nil {
		queryBuilder.WriteString(" AND round_number = $" + strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Round)
		placeholderIndex++
	}
	if filter.MemberID != "" {
		p := strconv.Itoa(placeholderIndex)
		queryBuilder.WriteString(" AND (white = $" + p + " OR black = $" + p + ")")
		args = append(args, filter.MemberID)
	}
	if filter.OnlyOpen {
		queryBuilder.WriteString(" AND game_id IS NULL")
	}
	queryBuilder.WriteString(" ORDER BY event_id ASC, round_number ASC, id ASC")

	rows, err := r.exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixtures: %w", err)
	}
	defer rows.Close()

	fixtures := make([]*models.Fixture, 0)
	for rows.Next() {
		f, err := scanFixture(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fixture row: %w", err)
		}
		fixtures = append(fixtures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fixture rows: %w", err)
	}
	return fixtures, nil
}

func (r *postgresFixtureRepository) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	var n int
	if err := r.exec.QueryRowContext(ctx, `SELECT count(*) FROM fixtures WHERE event_id = $1`, eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count fixtures for event %d: %w", eventID, err)
	}
	return n, nil
}

func (r *postgresFixtureRepository) Fulfill(ctx context.Context, id int64, gameID string, outcome models.Outcome) error {
	query := `UPDATE fixtures SET game_id = $1, outcome = $2 WHERE id = $3 AND game_id IS NULL`
	result, err := r.exec.ExecContext(ctx, query, gameID, string(outcome), id)
	if err != nil {
		return mapConstraintError(fmt.Errorf("failed to fulfil fixture %d: %w", id, err), ErrGameAlreadyExists, ErrGameNotFound)
	}
	return checkAffectedRows(result, ErrFixtureAlreadyFulfilled)
}
