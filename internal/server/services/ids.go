package services

import "github.com/google/uuid"

// ValidID reports whether id can name a row. Rows are keyed by uuid, so
// anything else cannot match and is treated as unknown.
func ValidID(id string) bool {
	return uuid.Validate(id) == nil
}
