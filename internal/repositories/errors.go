package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrInvalid indicates the attempted write violates a check constraint.
	ErrInvalid = errors.New("record violates constraint")
)

// mapPgError translates constraint violations into repository sentinels and
// returns other errors unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return ErrConflict
	case "23503":
		return ErrNotFound
	case "23514":
		return ErrInvalid
	}
	return err
}

func wrapWriteError(op string, err error) error {
	if mapped := mapPgError(err); mapped != err {
		return mapped
	}
	return fmt.Errorf("%s: %w", op, err)
}
