package db

import "strings"

// IsUniqueViolation reports whether the error references a unique constraint
// violation. With a constraintName it looks for that constraint in the error
// text, which works for both Postgres and the sqlite driver used in tests.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
