package app

import (
	"regexp"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex   = regexp.MustCompile(`\s+`)
	queryPlaceholderValues = regexp.MustCompile(`VALUES \((\$\d+, )+\$\d+\)`)
)

// formatDBQueryForTrace flattens whitespace and collapses insert placeholder lists to VALUES (...).
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	normalized = queryPlaceholderValues.ReplaceAllString(normalized, "VALUES (...)")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}
