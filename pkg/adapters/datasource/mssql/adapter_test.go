//go:build mssql || all_adapters

package mssql

import (
	"context"
	"os"
	"testing"
	"time"
)

// liveDSN returns a DSN for a reachable SQL Server, or skips the test.
// There is no lightweight SQL Server container for every CI platform, so
// these tests gate on an environment variable instead of testcontainers.
func liveDSN(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping live SQL Server test in short mode")
	}

	dsn := os.Getenv("MSSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("skipping live SQL Server test: MSSQL_TEST_DSN not set")
	}
	return dsn
}

func TestAdapter_TestConnection(t *testing.T) {
	dsn := liveDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	adapter, err := NewAdapter(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	defer adapter.Close()

	if err := adapter.TestConnection(ctx); err != nil {
		t.Errorf("TestConnection failed: %v", err)
	}
}

func TestQueryExecutor_Query_Live(t *testing.T) {
	dsn := liveDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	executor, err := NewQueryExecutor(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create query executor: %v", err)
	}
	defer executor.Close()

	result, err := executor.Query(ctx, "SELECT 1 AS num, 'hello' AS greeting", 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if result.RowCount != 1 {
		t.Fatalf("expected 1 row, got %d", result.RowCount)
	}
	if result.Rows[0]["greeting"] != "hello" {
		t.Errorf("expected greeting 'hello', got %v", result.Rows[0]["greeting"])
	}
}

func TestQueryExecutor_ValidateQuery_Live(t *testing.T) {
	dsn := liveDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	executor, err := NewQueryExecutor(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create query executor: %v", err)
	}
	defer executor.Close()

	if err := executor.ValidateQuery(ctx, "SELECT 1"); err != nil {
		t.Errorf("expected valid statement to pass validation: %v", err)
	}

	if err := executor.ValidateQuery(ctx, "SELEC 1 FRM"); err == nil {
		t.Error("expected syntax error to fail validation")
	}

	// The session that ran PARSEONLY must be usable afterwards.
	if _, err := executor.Query(ctx, "SELECT 1 AS n", 0); err != nil {
		t.Errorf("executor unusable after validation: %v", err)
	}
}
