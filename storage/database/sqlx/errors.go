// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// uniqueConstraintErr translates a unique violation into the sentinel the
// constraint stands for. Anything else passes through untouched.
func uniqueConstraintErr(err error, constraints map[string]error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		if mapped, ok := constraints[pqErr.Constraint]; ok {
			return mapped
		}
	}
	return err
}

func newID() string { return uuid.New().String() }
