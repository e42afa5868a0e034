package sql

import (
	"strings"
)

// ValidationResult contains the normalized SQL and any validation errors.
type ValidationResult struct {
	NormalizedSQL string
	Error         error
}

// ValidateAndNormalize checks SQL for multiple statements and strips the
// trailing semicolon.
//
// The validation order is:
// 1. Strip trailing semicolon and whitespace (normalize)
// 2. Check for multiple statements (any remaining semicolons outside string
// literals and comments)
//
// This is a storage-time check for template text. Substitute does its own
// multi-statement rejection during parsing and never normalizes, so a
// marker-free template round-trips byte-identical.
func ValidateAndNormalize(sqlQuery string) ValidationResult {
	sqlQuery = strings.TrimSpace(sqlQuery)

	if sqlQuery == "" {
		return ValidationResult{NormalizedSQL: sqlQuery}
	}

	normalized := stripTrailingSemicolon(sqlQuery)

	// Any semicolon remaining after normalization separates statements.
	if hasStatementSeparator(normalized) {
		return ValidationResult{Error: ErrMultipleStatements}
	}

	return ValidationResult{NormalizedSQL: normalized}
}

// hasStatementSeparator reports whether the SQL contains a semicolon outside
// of string literals, quoted identifiers, and comments.
func hasStatementSeparator(sqlQuery string) bool {
	for _, t := range lexSQL(sqlQuery) {
		if t.kind == tokOp && t.text == ";" {
			return true
		}
	}
	return false
}

// stripTrailingSemicolon removes a trailing semicolon and any whitespace
// around it.
func stripTrailingSemicolon(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")

	if strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimSuffix(sqlQuery, ";")
		sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	}

	return sqlQuery
}
