//go:build postgres || all_adapters

// Package postgres implements the datasource adapter for PostgreSQL targets
// on pgx. Compiled in with -tags postgres (or all_adapters).
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantagebi/vantage-engine/pkg/adapters/datasource"
)

// Adapter provides PostgreSQL connectivity checks.
type Adapter struct {
	pool *pgxpool.Pool
}

// NewAdapter opens a pool for connection testing. The caller owns the
// adapter and must Close it.
func NewAdapter(ctx context.Context, dsn string) (*Adapter, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &Adapter{pool: pool}, nil
}

// TestConnection verifies the database is reachable with valid credentials.
// It checks server connectivity (ping) and then database access with a
// simple query: a ping can succeed against a server that rejects queries.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := a.pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}

	return nil
}

// Close releases the adapter's pool.
func (a *Adapter) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

// Ensure Adapter implements ConnectionTester at compile time.
var _ datasource.ConnectionTester = (*Adapter)(nil)
