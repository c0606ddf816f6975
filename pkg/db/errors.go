package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether the provided error is a unique constraint
// violation. When constraint names are given, the violation must reference at
// least one of them; sqlite reports the offending column rather than the
// constraint, so callers pass both spellings where they differ.
func IsUniqueViolation(err error, constraints ...string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != uniqueViolationCode {
			return false
		}
		return matchesConstraint(pgErr.ConstraintName, constraints)
	}

	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return matchesConstraint(msg, constraints)
}

func matchesConstraint(text string, constraints []string) bool {
	if len(constraints) == 0 {
		return true
	}
	for _, name := range constraints {
		if name != "" && strings.Contains(text, name) {
			return true
		}
	}
	return false
}
