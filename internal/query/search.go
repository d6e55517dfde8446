// Package query turns free-text catalog searches into safe SQL LIKE patterns.
package query

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSearchLength is the longest accepted search term, in characters.
const MaxSearchLength = 100

// EscapeChar is the LIKE escape character patterns are built with. Queries
// using LikePattern must declare it with ESCAPE '\'.
const EscapeChar = `\`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SanitizeSearch trims a search term and removes null bytes. An empty result
// means no search. Terms longer than MaxSearchLength are rejected.
func SanitizeSearch(term string) (string, error) {
	term = strings.TrimSpace(strings.ReplaceAll(term, "\x00", ""))
	if n := utf8.RuneCountInString(term); n > MaxSearchLength {
		return "", fmt.Errorf("search term too long (max %d chars)", MaxSearchLength)
	}
	return term, nil
}

// LikePattern returns a lower-cased substring pattern for term with the LIKE
// wildcards escaped, so "100%" matches the literal text only.
func LikePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
