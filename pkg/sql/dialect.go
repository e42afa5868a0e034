package sql

import (
	"fmt"
	"strings"
)

// Dialect supplies the syntax rules of a target database: identifier
// quoting, string escaping, and literal formats. Dialects are stateless and
// safe for concurrent use.
type Dialect interface {
	// Name returns the canonical dialect name ("mysql", "postgres", ...).
	Name() string

	// QuoteIdentifier quotes a single identifier path segment.
	QuoteIdentifier(name string) string

	// QuoteString renders s as a complete string literal, quotes included.
	QuoteString(s string) string

	// BooleanLiteral renders a boolean literal.
	BooleanLiteral(b bool) string

	// DateLiteral renders a "2006-01-02" value as a date literal.
	DateLiteral(v string) string

	// TimestampLiteral renders a "2006-01-02 15:04:05" value as a
	// timestamp literal.
	TimestampLiteral(v string) string
}

// Exported dialect instances. DialectByName resolves these from
// configuration or request fields.
var (
	MySQL    Dialect = mysqlDialect{}
	Postgres Dialect = postgresDialect{}
	MSSQL    Dialect = mssqlDialect{}
	SQLite   Dialect = sqliteDialect{}
)

// DialectByName returns the dialect registered under name. Recognized
// names: mysql, postgres (postgresql), mssql (sqlserver), sqlite.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "mssql", "sqlserver":
		return MSSQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}

// quoteIdentifierPath quotes a possibly dotted identifier, quoting each
// path segment separately: a.b -> "a"."b".
func quoteIdentifierPath(d Dialect, name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteString escapes both the quote character and backslash: MySQL treats
// backslash as an escape character by default (NO_BACKSLASH_ESCAPES off).
func (mysqlDialect) QuoteString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return "'" + s + "'"
}

func (mysqlDialect) BooleanLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (mysqlDialect) DateLiteral(v string) string      { return "DATE '" + v + "'" }
func (mysqlDialect) TimestampLiteral(v string) string { return "TIMESTAMP '" + v + "'" }

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteString doubles embedded quotes. Backslash is an ordinary character
// under standard_conforming_strings, the default since PostgreSQL 9.1.
func (postgresDialect) QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (postgresDialect) BooleanLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (postgresDialect) DateLiteral(v string) string      { return "DATE '" + v + "'" }
func (postgresDialect) TimestampLiteral(v string) string { return "TIMESTAMP '" + v + "'" }

type mssqlDialect struct{}

func (mssqlDialect) Name() string { return "mssql" }

func (mssqlDialect) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (mssqlDialect) QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// BooleanLiteral renders 1/0: SQL Server has no boolean literal keywords,
// only the BIT type.
func (mssqlDialect) BooleanLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// SQL Server has no DATE/TIMESTAMP literal prefixes; plain strings convert
// implicitly.
func (mssqlDialect) DateLiteral(v string) string      { return "'" + v + "'" }
func (mssqlDialect) TimestampLiteral(v string) string { return "'" + v + "'" }

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (sqliteDialect) QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// SQLite stores booleans as integers; 1/0 works on every version.
func (sqliteDialect) BooleanLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// SQLite has no date literal syntax; dates are ISO-8601 strings.
func (sqliteDialect) DateLiteral(v string) string      { return "'" + v + "'" }
func (sqliteDialect) TimestampLiteral(v string) string { return "'" + v + "'" }
