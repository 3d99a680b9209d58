package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/vietddude/nkiru/internal/core/apperr"
)

// translateError turns driver errors into backend errors carrying the
// SQLSTATE code, so both drivers classify the same way.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &apperr.BackendError{
			Kind:    apperr.KindResponse,
			Code:    pgErr.Code,
			Message: pgErr.Message,
			Details: pgErr.Detail,
			Hint:    pgErr.Hint,
			Err:     err,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &apperr.BackendError{
			Kind:    apperr.KindResponse,
			Code:    string(pqErr.Code),
			Message: pqErr.Message,
			Details: pqErr.Detail,
			Hint:    pqErr.Hint,
			Err:     err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return apperr.TransportError(err)
	}

	return err
}
