package postgres

import (
	"errors"

	"contractdesk/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes translated into domain error kinds at the store
// boundary. Everything unrecognized stays a wrapped store error and
// surfaces as a generic 500.
const (
	pgUniqueViolation   = "23505"
	pgInvalidDateFormat = "22007"
	pgDatetimeOverflow  = "22008"
	pgInvalidTextRepr   = "22P02"
	pgForeignKeyMissing = "23503"
	pgNotNullViolation  = "23502"
)

// translateWriteError reclassifies known postgres failures from inserts
// and updates. The caller wraps whatever comes back that isn't nil.
func translateWriteError(err error) error {
	var pgerr *pgconn.PgError
	if !errors.As(err, &pgerr) {
		return nil
	}
	field := pgerr.ColumnName
	if field == "" {
		field = "value"
	}
	switch pgerr.Code {
	case pgUniqueViolation:
		return domain.ErrConflict
	case pgInvalidDateFormat, pgDatetimeOverflow, pgInvalidTextRepr:
		return domain.NewValidationError(map[string]string{field: "invalid value: " + pgerr.Message})
	case pgForeignKeyMissing, pgNotNullViolation:
		return domain.NewValidationError(map[string]string{field: pgerr.Message})
	}
	return nil
}
