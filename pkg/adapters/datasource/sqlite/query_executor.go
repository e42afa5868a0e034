//go:build sqlite || all_adapters

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vantagebi/vantage-engine/pkg/adapters/datasource"
)

// QueryExecutor provides SQLite query execution for substituted SQL.
type QueryExecutor struct {
	db *sql.DB
}

// NewQueryExecutor opens a connection pool against the given DSN.
func NewQueryExecutor(ctx context.Context, dsn string) (*QueryExecutor, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &QueryExecutor{db: db}, nil
}

// Query runs a SELECT statement and returns bounded results.
// See datasource.QueryExecutor.Query for limit behavior.
func (e *QueryExecutor) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	effectiveLimit := datasource.EffectiveLimit(limit)
	queryToRun := fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d",
		trimStatement(sqlQuery), effectiveLimit)

	rows, err := e.db.QueryContext(ctx, queryToRun)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columnNames, columnTypes, err := describeResultSet(rows)
	if err != nil {
		return nil, err
	}

	columns := make([]datasource.ColumnInfo, len(columnNames))
	for i, colName := range columnNames {
		columns[i] = datasource.ColumnInfo{
			Name: colName,
			Type: typeAffinity(columnTypes[i].DatabaseTypeName()),
		}
	}

	resultRows, err := collectRows(rows, columnNames, columnTypes)
	if err != nil {
		return nil, err
	}

	return &datasource.QueryExecutionResult{
		Columns:   columns,
		Rows:      resultRows,
		RowCount:  len(resultRows),
		Truncated: len(resultRows) == effectiveLimit,
	}, nil
}

// Execute runs any SQL statement (DDL/DML) and returns results.
// Statements with a RETURNING clause (or leading SELECT/WITH) report rows;
// everything else reports rows affected.
func (e *QueryExecutor) Execute(ctx context.Context, sqlStatement string) (*datasource.ExecuteResult, error) {
	if !statementReturnsRows(sqlStatement) {
		execResult, err := e.db.ExecContext(ctx, sqlStatement)
		if err != nil {
			return nil, fmt.Errorf("failed to execute statement: %w", err)
		}

		rowsAffected, err := execResult.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}

		return &datasource.ExecuteResult{RowsAffected: rowsAffected}, nil
	}

	rows, err := e.db.QueryContext(ctx, sqlStatement)
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	defer rows.Close()

	columnNames, columnTypes, err := describeResultSet(rows)
	if err != nil {
		return nil, err
	}

	resultRows, err := collectRows(rows, columnNames, columnTypes)
	if err != nil {
		return nil, err
	}

	// RETURNING emits one row per affected row, so the counts coincide.
	return &datasource.ExecuteResult{
		Columns:      columnNames,
		Rows:         resultRows,
		RowCount:     len(resultRows),
		RowsAffected: int64(len(resultRows)),
	}, nil
}

// ValidateQuery checks if a SQL statement is valid without executing it.
// Preparing a statement compiles it, which catches both syntax errors and
// references to missing tables or columns.
func (e *QueryExecutor) ValidateQuery(ctx context.Context, sqlQuery string) error {
	stmt, err := e.db.PrepareContext(ctx, sqlQuery)
	if err != nil {
		return fmt.Errorf("invalid SQL: %w", err)
	}
	return stmt.Close()
}

// QuoteIdentifier safely quotes a SQL identifier to prevent SQL injection.
// Uses SQLite's standard double-quote quoting.
func (e *QueryExecutor) QuoteIdentifier(name string) string {
	return quoteName(name)
}

// Close releases the executor's connection pool.
func (e *QueryExecutor) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// describeResultSet returns column names and types for an open result set.
func describeResultSet(rows *sql.Rows) ([]string, []*sql.ColumnType, error) {
	columnNames, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get column types: %w", err)
	}

	return columnNames, columnTypes, nil
}

// collectRows scans all rows into maps keyed by column name. Text columns
// arrive as []byte from some driver paths and are converted to string.
func collectRows(rows *sql.Rows, columnNames []string, columnTypes []*sql.ColumnType) ([]map[string]any, error) {
	resultRows := make([]map[string]any, 0)

	for rows.Next() {
		values := make([]any, len(columnNames))
		valuePtrs := make([]any, len(columnNames))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rowMap := make(map[string]any)
		for i, col := range columnNames {
			val := values[i]
			if b, ok := val.([]byte); ok && typeAffinity(columnTypes[i].DatabaseTypeName()) == "TEXT" {
				val = string(b)
			}
			rowMap[col] = val
		}
		resultRows = append(resultRows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return resultRows, nil
}

// Ensure QueryExecutor implements datasource.QueryExecutor at compile time.
var _ datasource.QueryExecutor = (*QueryExecutor)(nil)
