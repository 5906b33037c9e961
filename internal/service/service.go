// Package service holds the packing-list operations. Every method takes the
// acting user's id and never returns records owned by anyone else.
package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"packd/internal/apperr"
)

// cleanName trims a name and enforces non-blank and max length in characters.
func cleanName(field, raw string, max int) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperr.ValidationField(field, fmt.Sprintf("%s may not be blank", field))
	}
	if utf8.RuneCountInString(name) > max {
		return "", apperr.ValidationField(field, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return name, nil
}

// ParseID parses a path or form id. Malformed ids are reported as NOT_FOUND,
// the same as ids that exist but belong to someone else.
func ParseID(raw, entity string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperr.NotFound(entity)
	}
	return id, nil
}
