package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error taxonomy surfaced to callers. Handlers map these onto the HTTP error
// envelope; the string is the stable kind identifier.
var (
	ErrNotFound         = errors.New("NotFound")
	ErrForbidden        = errors.New("Forbidden")
	ErrInvariant        = errors.New("Invariant")
	ErrInvalidReference = errors.New("InvalidReference")
	ErrConflict         = errors.New("Conflict")
	ErrRateLimited      = errors.New("RateLimited")
	ErrTimeout          = errors.New("Timeout")
	ErrUnavailable      = errors.New("Unavailable")
)

// Kind returns the stable kind identifier for err, or "Internal" when the
// error is not part of the taxonomy.
func Kind(err error) string {
	for _, e := range []error{
		ErrNotFound, ErrForbidden, ErrInvariant, ErrInvalidReference,
		ErrConflict, ErrRateLimited, ErrTimeout, ErrUnavailable,
	} {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return "Internal"
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports whether err is a Postgres foreign key
// violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
