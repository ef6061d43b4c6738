package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories translate into domain errors.
const (
	// uniqueViolation is raised on unique constraint failures.
	uniqueViolation = "23505"
	// invalidTextRepresentation is raised when a value cannot be parsed as
	// the column type, e.g. a malformed uuid.
	invalidTextRepresentation = "22P02"
)

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// isMalformedKey reports whether the lookup key could not be parsed. No row
// can match such a key, so lookups treat it as not found.
func isMalformedKey(err error) bool {
	return hasSQLState(err, invalidTextRepresentation)
}
