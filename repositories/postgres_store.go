package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/Dosada05/chess-league/logger"
)

type postgresRepos struct {
	exec SQLExecutor
}

func (r postgresRepos) Members() MemberRepository   { return NewPostgresMemberRepository(r.exec) }
func (r postgresRepos) Events() EventRepository     { return NewPostgresEventRepository(r.exec) }
func (r postgresRepos) Fixtures() FixtureRepository { return NewPostgresFixtureRepository(r.exec) }
func (r postgresRepos) Games() GameRepository       { return NewPostgresGameRepository(r.exec) }

type postgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(db *sql.DB, log *zap.Logger) Store {
	return &postgresStore{db: db, logger: logger.OrNop(log)}
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(tx Repos) error) error {
	return s.run(ctx, nil, fn)
}

// WithinReadTx читает в REPEATABLE READ, поэтому все запросы внутри fn видят один снимок.
func (s *postgresStore) WithinReadTx(ctx context.Context, fn func(tx Repos) error) error {
	return s.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (s *postgresStore) run(ctx context.Context, opts *sql.TxOptions, fn func(tx Repos) error) (txErr error) {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", zap.Error(rbErr), zap.NamedError("cause", txErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(postgresRepos{exec: tx})
	return txErr
}
