// Package sqltext post-processes SQL candidates produced by the language model:
// markdown fence stripping, keyword validation, and semicolon enforcement.
package sqltext

import (
	"fmt"
	"strings"
)

var sqlKeywords = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE",
	"WHERE", "FROM", "JOIN", "GROUP BY", "ORDER BY",
}

// statementPrefixes are the verbs that mark interpreter output as executable SQL
// rather than a natural-language answer.
var statementPrefixes = []string{"SELECT", "INSERT", "UPDATE", "DELETE"}

// InvalidSQLError reports a model response that does not look like SQL.
type InvalidSQLError struct {
	Reason string
	SQL    string
}

func (e *InvalidSQLError) Error() string {
	return fmt.Sprintf("invalid generated sql: %s", e.Reason)
}

// Validate checks that the candidate contains at least one SQL keyword and a
// semicolon. It returns the candidate unchanged on success.
func Validate(sqlText string) (string, error) {
	upper := strings.ToUpper(sqlText)
	keywordFound := false
	for _, keyword := range sqlKeywords {
		if strings.Contains(upper, keyword) {
			keywordFound = true
			break
		}
	}
	if !keywordFound {
		return "", &InvalidSQLError{Reason: "generated query is not a valid SQL statement", SQL: sqlText}
	}
	if !strings.Contains(sqlText, ";") {
		return "", &InvalidSQLError{Reason: "generated query does not end with a semicolon", SQL: sqlText}
	}
	return sqlText, nil
}

// EnsureSemicolon trims surrounding whitespace and appends a terminating
// semicolon when missing. Idempotent.
func EnsureSemicolon(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	if !strings.HasSuffix(trimmed, ";") {
		return trimmed + ";"
	}
	return trimmed
}

// StripFencePair removes a ```sql ... ``` wrapper only when both markers are
// present, returning the trimmed body. Anything else passes through verbatim.
func StripFencePair(text string) string {
	if strings.HasPrefix(text, "```sql") && strings.HasSuffix(text, "```") {
		return strings.TrimSpace(text[6 : len(text)-3])
	}
	return text
}

// StripFenceMarkers removes a leading ```sql marker and a trailing ``` marker
// independently of each other. The follow-up path uses this looser variant
// because adapted statements sometimes come back with only one marker.
func StripFenceMarkers(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```sql") {
		trimmed = strings.TrimSpace(trimmed[6:])
	}
	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSpace(trimmed[:len(trimmed)-3])
	}
	return trimmed
}

// IsStatement reports whether interpreter output starts with a SQL verb,
// case-insensitively.
func IsStatement(text string) bool {
	upper := strings.ToUpper(text)
	for _, prefix := range statementPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
