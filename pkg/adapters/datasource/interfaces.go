// Package datasource defines the executor surface the platform uses to run
// substituted SQL against configured target databases, plus the registry
// adapters register themselves with. Concrete adapters live in subpackages
// and are compiled in via build tags (postgres, mssql, sqlite, all_adapters).
package datasource

import "context"

// ConnectionTester tests database connectivity.
// Each implementation owns its connection and must be closed when done.
type ConnectionTester interface {
	// TestConnection verifies the database is reachable with valid credentials.
	// Returns nil if connection is healthy, error otherwise.
	TestConnection(ctx context.Context) error

	// Close releases the database connection.
	Close() error
}

// MaxRowLimit is the hard cap on rows returned by Query methods.
// This protects against unbounded queries that could crash the server.
const MaxRowLimit = 10000

// QueryExecutor executes fully substituted SQL against a datasource.
// Substitution happens upstream: executors never see ${...} markers, only
// final SQL with inline literals.
//
// Each implementation owns its connection and must be closed when done.
type QueryExecutor interface {
	// Query runs a SELECT statement and returns bounded results.
	// The query is ALWAYS wrapped with a dialect-specific limit:
	//   - PostgreSQL: SELECT * FROM (query) AS _limited LIMIT n
	//   - SQL Server: SELECT TOP (n) * FROM (query) AS _limited
	//   - SQLite:     SELECT * FROM (query) AS _limited LIMIT n
	//
	// Limit behavior:
	//   - limit <= 0 or limit > MaxRowLimit: uses MaxRowLimit
	//   - otherwise: uses the specified limit
	//
	// Result.Truncated is set when the row count hits the effective limit.
	Query(ctx context.Context, sqlQuery string, limit int) (*QueryExecutionResult, error)

	// Execute runs a DDL/DML statement without wrapping or limits.
	// For statements with RETURNING clauses, returns rows in the result
	// where the driver supports it; otherwise only RowsAffected is set.
	Execute(ctx context.Context, sqlStatement string) (*ExecuteResult, error)

	// ValidateQuery checks if a SQL query is valid for this datasource
	// without executing it. Returns nil if valid.
	ValidateQuery(ctx context.Context, sqlQuery string) error

	// QuoteIdentifier safely quotes a SQL identifier (table, column, schema
	// name) to prevent SQL injection. Each adapter implements its dialect's
	// quoting.
	QuoteIdentifier(name string) string

	// Close releases any resources held by the executor.
	Close() error
}

// ColumnInfo describes a result column with database-agnostic type information.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"` // Database type name (e.g., "TEXT", "INT4", "VARCHAR")
}

// QueryExecutionResult holds the results from executing a query.
type QueryExecutionResult struct {
	Columns   []ColumnInfo     `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Truncated bool             `json:"truncated"` // row cap was hit; more rows may exist
}

// ExecuteResult holds the results from executing a DDL/DML statement.
type ExecuteResult struct {
	Columns      []string         `json:"columns,omitempty"`
	Rows         []map[string]any `json:"rows,omitempty"`
	RowCount     int              `json:"row_count"`
	RowsAffected int64            `json:"rows_affected"`
}

// EffectiveLimit normalizes a requested row limit per the Query contract.
func EffectiveLimit(limit int) int {
	if limit <= 0 || limit > MaxRowLimit {
		return MaxRowLimit
	}
	return limit
}
