//go:build mssql || all_adapters

package mssql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vantagebi/vantage-engine/pkg/adapters/datasource"
)

// QueryExecutor provides SQL Server query execution for substituted SQL.
type QueryExecutor struct {
	db *sql.DB
}

// NewQueryExecutor opens a connection pool against the given DSN.
func NewQueryExecutor(ctx context.Context, dsn string) (*QueryExecutor, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}
	return &QueryExecutor{db: db}, nil
}

// Query runs a SELECT statement and returns bounded results.
// See datasource.QueryExecutor.Query for limit behavior.
func (e *QueryExecutor) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	effectiveLimit := datasource.EffectiveLimit(limit)
	queryToRun := fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS _limited",
		effectiveLimit, trimStatement(sqlQuery))

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
			Type: mapSQLServerType(columnTypes[i].DatabaseTypeName()),
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
// Statements with an OUTPUT clause (or leading SELECT/WITH) report rows;
// everything else reports rows affected. The two paths exist because
// database/sql exposes RowsAffected only through ExecContext, and running
// the statement twice to get both is not an option.
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

	// OUTPUT emits one row per affected row, so the counts coincide.
	return &datasource.ExecuteResult{
		Columns:      columnNames,
		Rows:         resultRows,
		RowCount:     len(resultRows),
		RowsAffected: int64(len(resultRows)),
	}, nil
}

// ValidateQuery checks if a SQL statement is syntactically valid without
// executing it, using SQL Server's PARSEONLY session setting. The three
// batches run on a dedicated session so the setting cannot leak to pooled
// connections; SET PARSEONLY is processed at parse time, which is why the
// OFF batch still takes effect while the session is in parse-only mode.
func (e *QueryExecutor) ValidateQuery(ctx context.Context, sqlQuery string) error {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SET PARSEONLY ON"); err != nil {
		return fmt.Errorf("enable parse-only mode: %w", err)
	}

	_, parseErr := conn.ExecContext(ctx, sqlQuery)

	if _, err := conn.ExecContext(ctx, "SET PARSEONLY OFF"); err != nil {
		return fmt.Errorf("disable parse-only mode: %w", err)
	}

	if parseErr != nil {
		return fmt.Errorf("invalid SQL: %w", parseErr)
	}
	return nil
}

// QuoteIdentifier safely quotes a SQL identifier to prevent SQL injection.
// Uses SQL Server's square bracket syntax: [name]
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
// arrive as []byte from the driver and are converted to string.
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
			if b, ok := val.([]byte); ok && isStringType(columnTypes[i].DatabaseTypeName()) {
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
