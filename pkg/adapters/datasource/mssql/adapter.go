//go:build mssql || all_adapters

// Package mssql implements the datasource executor surface for Microsoft
// SQL Server and Azure SQL Database over database/sql. DSNs use the
// sqlserver:// URL form understood by github.com/microsoft/go-mssqldb;
// Azure AD options ride along as DSN parameters rather than adapter config.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/vantagebi/vantage-engine/pkg/adapters/datasource"
)

// Adapter verifies SQL Server connectivity for a configured datasource.
type Adapter struct {
	db *sql.DB
}

// NewAdapter opens a connection pool against the given DSN.
func NewAdapter(ctx context.Context, dsn string) (*Adapter, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}
	return &Adapter{db: db}, nil
}

// TestConnection verifies the database is reachable with valid credentials.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	// Run a simple query to ensure we have database access
	var result int
	if err := a.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}

	return nil
}

// Close releases the adapter's connection pool.
func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Ensure Adapter implements ConnectionTester at compile time.
var _ datasource.ConnectionTester = (*Adapter)(nil)
