package domain

import (
	"strings"
	"unicode"
)

// NormalizeKey folds user-typed input into the snake_case form used by wire
// codes: "Public Safety", "public-safety" and " PUBLIC_safety " all become
// "public_safety". Runs of whitespace, hyphens and underscores collapse into
// a single underscore; leading and trailing separators are dropped.
func NormalizeKey(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
	return strings.Join(fields, "_")
}
