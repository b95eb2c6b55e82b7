package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

var ErrConstraintViolation = errors.New("constraint violation")

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// asPQError возвращает код ошибки postgres и имя ограничения, если err - *pq.Error.
func asPQError(err error) (code, constraint string, ok bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}

// mapConstraintError переводит нарушения ограничений БД в ошибки репозитория.
func mapConstraintError(err error, onUnique, onForeignKey error) error {
	code, constraint, ok := asPQError(err)
	if !ok {
		return err
	}
	switch code {
	case pqUniqueViolation:
		if onUnique != nil {
			return fmt.Errorf("%w (constraint %s)", onUnique, constraint)
		}
	case pqForeignKeyViolation:
		if onForeignKey != nil {
			return fmt.Errorf("%w (constraint %s)", onForeignKey, constraint)
		}
	case pqCheckViolation:
		return fmt.Errorf("%w: %s: %v", ErrConstraintViolation, constraint, err)
	}
	return err
}
