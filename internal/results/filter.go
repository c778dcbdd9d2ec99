package results

import (
	"strings"

	"fastfinder/internal/domain"
)

// ParseTokens splits quick-filter text on whitespace and lowercases the
// tokens. Empty text yields no tokens.
func ParseTokens(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	tokens := make([]string, len(fields))
	for i, f := range fields {
		tokens[i] = strings.ToLower(f)
	}
	return tokens
}

// Matches reports whether every token is a case-insensitive substring of
// the record's location, entry or snippet. Tokens must come from
// ParseTokens.
func Matches(rec domain.Record, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}

	location := strings.ToLower(rec.Location)
	entry := strings.ToLower(rec.Entry)
	snippet := strings.ToLower(rec.Snippet)

	for _, token := range tokens {
		if strings.Contains(location, token) ||
			strings.Contains(entry, token) ||
			strings.Contains(snippet, token) {
			continue
		}
		return false
	}
	return true
}

// MatchesFilter is Matches for raw filter text
func MatchesFilter(rec domain.Record, filterText string) bool {
	return Matches(rec, ParseTokens(filterText))
}
