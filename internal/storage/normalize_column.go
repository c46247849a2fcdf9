package storage

import (
	"fmt"
	"strings"
)

// NormalizeColumn converts a field name into a safe lowercase SQL
// identifier: letters, digits and underscores only, never starting with a
// digit, never empty.
//
// Field names come from user-supplied extraction specs, so this runs on
// every name before it reaches DDL or DML.
func NormalizeColumn(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '.':
			b.WriteRune('_')
		default:
			// Drop anything else; identifiers stay ASCII.
		}
	}

	s := b.String()
	if s == "" {
		return "field"
	}
	if s[0] >= '0' && s[0] <= '9' {
		return "_" + s
	}
	return s
}

// NormalizeColumns maps field names to identifiers, suffixing collisions so
// two distinct fields never land in the same column.
func NormalizeColumns(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]int, len(names))

	for i, name := range names {
		col := NormalizeColumn(name)
		seen[col]++
		if seen[col] > 1 {
			col = fmt.Sprintf("%s_%d", col, seen[col])
		}
		out[i] = col
	}
	return out
}
