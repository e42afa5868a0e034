//go:build sqlite || all_adapters

// Package sqlite implements the datasource executor surface for SQLite
// files over database/sql using the CGo-free modernc.org/sqlite driver.
// DSNs are file paths or file: URIs; in-memory databases should use
// file:name?mode=memory&cache=shared so pooled connections share one
// database instead of each opening their own.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/vantagebi/vantage-engine/pkg/adapters/datasource"
)

// Adapter verifies SQLite connectivity for a configured datasource.
type Adapter struct {
	db *sql.DB
}

// NewAdapter opens a connection pool against the given DSN.
func NewAdapter(ctx context.Context, dsn string) (*Adapter, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Adapter{db: db}, nil
}

// TestConnection verifies the database file is readable.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

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
