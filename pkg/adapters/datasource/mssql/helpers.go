//go:build mssql || all_adapters

package mssql

import (
	"fmt"
	"regexp"
	"strings"
)

// quoteName quotes an identifier with SQL Server square brackets,
// escaping ] as ]] the way QUOTENAME() does.
func quoteName(identifier string) string {
	escaped := strings.ReplaceAll(identifier, "]", "]]")
	return fmt.Sprintf("[%s]", escaped)
}

// trimStatement removes trailing whitespace and semicolons so a statement
// can be wrapped as a subquery. Multi-statement input is rejected upstream.
func trimStatement(sqlQuery string) string {
	return strings.TrimRight(sqlQuery, " \t\r\n;")
}

var outputClauseRe = regexp.MustCompile(`(?i)\bOUTPUT\b`)

// statementReturnsRows reports whether a statement produces a result set:
// a leading SELECT or WITH, or an OUTPUT clause. String literals are
// stripped first so literal text cannot trip the OUTPUT check.
func statementReturnsRows(sqlStatement string) bool {
	stripped := stripStringLiterals(sqlStatement)
	trimmed := strings.TrimSpace(stripped)

	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH") {
		return true
	}

	return outputClauseRe.MatchString(stripped)
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

// mapSQLServerType maps SQL Server type names to the engine's dialect-neutral
// type names so results look the same regardless of the backing datasource.
func mapSQLServerType(sqlServerType string) string {
	sqlServerType = strings.ToUpper(sqlServerType)

	switch sqlServerType {
	// Integer types
	case "TINYINT":
		return "TINYINT"
	case "SMALLINT":
		return "SMALLINT"
	case "INT":
		return "INTEGER"
	case "BIGINT":
		return "BIGINT"

	// Decimal types
	case "DECIMAL", "NUMERIC":
		return "NUMERIC"
	case "MONEY", "SMALLMONEY":
		return "MONEY"
	case "FLOAT":
		return "DOUBLE PRECISION"
	case "REAL":
		return "REAL"

	// String types
	case "CHAR", "NCHAR":
		return "CHAR"
	case "VARCHAR", "NVARCHAR":
		return "VARCHAR"
	case "TEXT", "NTEXT":
		return "TEXT"

	// Binary types
	case "BINARY", "VARBINARY":
		return "BYTEA"
	case "IMAGE":
		return "BLOB"

	// Date/Time types
	case "DATE":
		return "DATE"
	case "TIME":
		return "TIME"
	case "DATETIME", "DATETIME2", "SMALLDATETIME":
		return "TIMESTAMP"
	case "DATETIMEOFFSET":
		return "TIMESTAMP WITH TIME ZONE"

	// Boolean
	case "BIT":
		return "BOOLEAN"

	// UUID/GUID
	case "UNIQUEIDENTIFIER":
		return "UUID"

	case "XML":
		return "XML"

	// Other types - return as-is
	default:
		return sqlServerType
	}
}

// isStringType returns true if the type is a string type in SQL Server.
func isStringType(sqlType string) bool {
	switch strings.ToUpper(sqlType) {
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "NTEXT":
		return true
	}
	return false
}
