package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrStaleVersion is returned when an optimistic version check fails.
	ErrStaleVersion = errors.New("stale record version")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

const pqUniqueViolation = "23505"

func translateWriteErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ErrDuplicate
	}
	return err
}
