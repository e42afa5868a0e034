// Package testhelpers provides shared fixtures for integration tests.
package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/vantagebi/vantage-engine/pkg/config"
	"github.com/vantagebi/vantage-engine/pkg/database"
)

// PostgresTestImage is the stock PostgreSQL image used for integration tests.
const PostgresTestImage = "postgres:16-alpine"

// TestDB holds a shared test database container and connection pool.
// The default database carries a small sample dataset for executor tests.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresTestImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "test_data",
			"POSTGRES_USER":     "vantage",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://vantage:test_password@%s:%s/test_data?sslmode=disable",
		host, port.Port())

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err := pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	if err := seedSampleData(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to seed sample data: %w", err)
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}

// seedSampleData loads a small dataset that executor and substitution tests
// query against. Idempotent so the shared container can be reused.
func seedSampleData(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id INT PRIMARY KEY,
			name TEXT NOT NULL,
			region TEXT,
			signup_date DATE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INT PRIMARY KEY,
			customer_id INT NOT NULL REFERENCES customers(id),
			amount NUMERIC(10,2) NOT NULL,
			status TEXT NOT NULL,
			placed_at TIMESTAMPTZ NOT NULL
		)`,
		`INSERT INTO customers (id, name, region, signup_date) VALUES
			(1, 'Acme Corp', 'east', '2024-01-15'),
			(2, 'Globex', 'west', '2024-02-20'),
			(3, 'Initech', 'east', '2024-03-05'),
			(4, 'Umbrella', NULL, '2024-04-10'),
			(5, 'Stark Industries', 'north', '2024-05-25')
		ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO orders (id, customer_id, amount, status, placed_at) VALUES
			(1, 1, 120.50, 'shipped',   '2024-06-01T10:00:00Z'),
			(2, 1, 75.00,  'pending',   '2024-06-03T11:30:00Z'),
			(3, 2, 310.25, 'shipped',   '2024-06-05T09:15:00Z'),
			(4, 3, 42.00,  'cancelled', '2024-06-07T16:45:00Z'),
			(5, 4, 99.99,  'shipped',   '2024-06-09T08:05:00Z'),
			(6, 5, 15.75,  'pending',   '2024-06-11T14:20:00Z')
		ON CONFLICT (id) DO NOTHING`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// StoreDB holds the template store connection with migrations applied.
// Use this for testing handlers, services, and repositories against a real
// database.
type StoreDB struct {
	DB      *database.DB
	ConnStr string
}

var (
	sharedStoreDB     *StoreDB
	sharedStoreDBOnce sync.Once
	sharedStoreDBErr  error
)

// GetStoreDB returns a shared template store database for integration tests.
// The database has migrations applied and is reused across all tests.
func GetStoreDB(t *testing.T) *StoreDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	// Ensure test container is running first
	testDB := GetTestDB(t)

	sharedStoreDBOnce.Do(func() {
		sharedStoreDB, sharedStoreDBErr = setupStoreDB(testDB)
	})

	if sharedStoreDBErr != nil {
		t.Fatalf("Failed to setup store database: %v", sharedStoreDBErr)
	}

	return sharedStoreDB
}

func setupStoreDB(testDB *TestDB) (*StoreDB, error) {
	ctx := context.Background()

	// The store gets its own database inside the shared container so its
	// schema never collides with the sample dataset.
	_, err := testDB.Pool.Exec(ctx, "CREATE DATABASE vantage_store_test")
	if err != nil && !isDuplicateDatabase(err) {
		return nil, fmt.Errorf("failed to create store database: %w", err)
	}

	host, err := testDB.Container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := testDB.Container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	cfg := &config.DatabaseConfig{
		Host:           host,
		Port:           port.Int(),
		User:           "vantage",
		Password:       "test_password",
		Database:       "vantage_store_test",
		MaxConnections: 5,
		SSLMode:        "disable",
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to store database: %w", err)
	}

	connStr := fmt.Sprintf("postgres://vantage:test_password@%s:%s/vantage_store_test?sslmode=disable",
		host, port.Port())

	// Run migrations using database/sql (required by golang-migrate)
	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open sql connection: %w", err)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, MigrationsPath(), zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &StoreDB{
		DB:      db,
		ConnStr: connStr,
	}, nil
}

func isDuplicateDatabase(err error) bool {
	// 42P04 duplicate_database; the shared container persists across test
	// binaries in one run.
	return err != nil && (strings.Contains(err.Error(), "42P04") || strings.Contains(err.Error(), "already exists"))
}

// MigrationsPath returns the absolute path of the migrations directory,
// resolved from this source file so tests work from any package directory.
func MigrationsPath() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "migrations")
}
