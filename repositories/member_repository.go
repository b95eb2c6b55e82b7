package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/chess-league/models"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrMemberConflict = errors.New("member already exists")
)

type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id string) (*models.Member, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Member, error)
	List(ctx context.Context) ([]*models.Member, error)
	UpdateRating(ctx context.Context, id string, rating int) error
	UpdateLichessProfile(ctx context.Context, id, username string, rapid, blitz *int) error
}

type postgresMemberRepository struct {
	exec SQLExecutor
}

func NewPostgresMemberRepository(exec SQLExecutor) MemberRepository {
	return &postgresMemberRepository{exec: exec}
}

const memberColumns = `id, name, rating, lichess_username, rapid_rating, blitz_rating, joined_at`

func scanMember(row interface{ Scan(...interface{}) error }) (*models.Member, error) {
	m := &models.Member{}
	var rapid, blitz sql.NullInt64
	if err := row.Scan(&m.ID, &m.Name, &m.Rating, &m.LichessUsername, &rapid, &blitz, &m.JoinedAt); err != nil {
		return nil, err
	}
	if rapid.Valid {
		v := int(rapid.Int64)
		m.RapidRating = &v
	}
	if blitz.Valid {
		v := int(blitz.Int64)
		m.BlitzRating = &v
	}
	return m, nil
}

func (r *postgresMemberRepository) Create(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO members (id, name, rating, lichess_username, rapid_rating, blitz_rating)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING joined_at`

	err := r.exec.QueryRowContext(ctx, query,
		member.ID, member.Name, member.Rating, member.LichessUsername, member.RapidRating, member.BlitzRating,
	).Scan(&member.JoinedAt)
	if err != nil {
		return mapConstraintError(fmt.Errorf("failed to create member %s: %w", member.ID, err), ErrMemberConflict, nil)
	}
	return nil
}

func (r *postgresMemberRepository) GetByID(ctx context.Context, id string) (*models.Member, error) {
	return r.get(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
}

func (r *postgresMemberRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Member, error) {
	return r.get(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresMemberRepository) get(ctx context.Context, query, id string) (*models.Member, error) {
	m, err := scanMember(r.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to scan member by id %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresMemberRepository) List(ctx context.Context) ([]*models.Member, error) {
	rows, err := r.exec.QueryContext(ctx, `SELECT `+memberColumns+` FROM members ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}

func (r *postgresMemberRepository) UpdateRating(ctx context.Context, id string, rating int) error {
	result, err := r.exec.ExecContext(ctx, `UPDATE members SET rating = $1 WHERE id = $2`, rating, id)
	if err != nil {
		return fmt.Errorf("failed to update rating for member %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresMemberRepository) UpdateLichessProfile(ctx context.Context, id, username string, rapid, blitz *int) error {
	query := `UPDATE members SET lichess_username = $1, rapid_rating = $2, blitz_rating = $3 WHERE id = $4`
	result, err := r.exec.ExecContext(ctx, query, username, rapid, blitz, id)
	if err != nil {
		return fmt.Errorf("failed to update lichess profile for member %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}
