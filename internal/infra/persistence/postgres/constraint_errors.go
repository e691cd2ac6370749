package postgres

import (
	"strings"

	"gestor/internal/errors"

	"gorm.io/gorm"
)

// isUniqueConstraintViolation reports whether err is a Postgres unique
// violation, regardless of whether gorm translated it.
func isUniqueConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// Fallback for drivers that surface the raw PostgreSQL error.
	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "23505") // unique_violation
}
