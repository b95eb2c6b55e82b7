package repositories

import (
	"context"
	"database/sql"
	"errors"
)

type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var ErrReadOnlyTx = errors.New("write attempted in read-only transaction")

// Repos - набор репозиториев, привязанных к одной транзакции.
type Repos interface {
	Members() MemberRepository
	Events() EventRepository
	Fixtures() FixtureRepository
	Games() GameRepository
}

// Store открывает транзакции. Все записи внутри fn применяются атомарно:
// если fn вернула ошибку, изменения откатываются.
// WithinReadTx видит один согласованный снимок данных.
// Вызывать WithinTx/WithinReadTx изнутри fn нельзя.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Repos) error) error
	WithinReadTx(ctx context.Context, fn func(tx Repos) error) error
}
