package entity

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error code for unique_violation.
const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique violation, and
// when constraint is non-empty, whether it names that specific constraint.
// Classification relies only on the driver's structured error code and the
// constraint name contract with the schema; error text is never inspected.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if string(pqErr.Code) != uniqueViolationCode {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
