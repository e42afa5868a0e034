//go:build sqlite || all_adapters

package sqlite

import (
	"fmt"
	"regexp"
	"strings"
)

// quoteName quotes an identifier with double quotes, escaping embedded
// double quotes by doubling them.
func quoteName(identifier string) string {
	escaped := strings.ReplaceAll(identifier, `"`, `""`)
	return fmt.Sprintf(`"%s"`, escaped)
}

// trimStatement removes trailing whitespace and semicolons so a statement
// can be wrapped as a subquery. Multi-statement input is rejected upstream.
func trimStatement(sqlQuery string) string {
	return strings.TrimRight(sqlQuery, " \t\r\n;")
}

var returningClauseRe = regexp.MustCompile(`(?i)\bRETURNING\b`)

// statementReturnsRows reports whether a statement produces a result set:
// a leading SELECT or WITH, or a RETURNING clause. String literals are
// stripped first so literal text cannot trip the RETURNING check.
func statementReturnsRows(sqlStatement string) bool {
	stripped := stripStringLiterals(sqlStatement)
	trimmed := strings.TrimSpace(stripped)

	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH") {
		return true
	}

	return returningClauseRe.MatchString(stripped)
}

// stripStringLiterals removes the contents of single-quoted literals,
// treating '' as an escaped quote.
func stripStringLiterals(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inLiteral := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inLiteral {
			b.WriteByte(c)
			if c == '\'' {
				inLiteral = true
			}
			continue
		}
		if c == '\'' {
			if i+1 < len(s) && s[i+1] == '\'' {
				i++ // escaped quote stays inside the literal
				continue
			}
			inLiteral = false
			b.WriteByte(c)
		}
	}

	return b.String()
}

// typeAffinity maps a declared SQLite column type to its affinity per the
// rules in the SQLite documentation. Expression columns with no declared
// type report UNKNOWN.
func typeAffinity(declaredType string) string {
	if declaredType == "" {
		return "UNKNOWN"
	}

	upper := strings.ToUpper(declaredType)
	switch {
	case strings.Contains(upper, "INT"):
		return "INTEGER"
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "CLOB"), strings.Contains(upper, "TEXT"):
		return "TEXT"
	case strings.Contains(upper, "BLOB"):
		return "BLOB"
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"), strings.Contains(upper, "DOUB"):
		return "REAL"
	default:
		return "NUMERIC"
	}
}
