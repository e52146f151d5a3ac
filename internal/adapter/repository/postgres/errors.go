package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/democredit/internal/domain"
)

// PostgreSQL error codes the repositories translate.
const (
	pgErrUniqueViolation  = "23505"
	pgErrLockNotAvailable = "55P03"
	pgErrQueryCanceled    = "57014"
)

// mapError translates driver errors into domain errors. Errors it does not
// recognise are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrAccountNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return domain.ErrAccountExists
		case pgErrLockNotAvailable, pgErrQueryCanceled:
			return fmt.Errorf("%w: %w", domain.ErrTransactionTimeout, err)
		}
	}

	return err
}
