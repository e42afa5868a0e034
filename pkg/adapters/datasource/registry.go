package datasource

import (
	"context"
	"sync"
)

// AdapterInfo describes a registered adapter for API discovery.
type AdapterInfo struct {
	Driver      string `json:"driver"`       // "postgres", "mssql", "sqlite"
	DisplayName string `json:"display_name"` // "PostgreSQL", "Microsoft SQL Server"
	Description string `json:"description"`  // "Connect to PostgreSQL 12+"
}

// AdapterRegistration contains info + factories for creating adapters.
// Factories receive the resolved DSN; secrets never pass through config maps.
type AdapterRegistration struct {
	Info            AdapterInfo
	TesterFactory   func(ctx context.Context, dsn string) (ConnectionTester, error)
	ExecutorFactory func(ctx context.Context, dsn string) (QueryExecutor, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Driver] = reg
}

// RegisteredAdapters returns info for all compiled-in adapters.
// Used by the API to report which drivers this build supports.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	return result
}

// getTesterFactory returns the connection tester factory for a driver.
// Returns nil if the driver is not compiled in.
func getTesterFactory(driver string) func(ctx context.Context, dsn string) (ConnectionTester, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[driver]; ok {
		return reg.TesterFactory
	}
	return nil
}

// getExecutorFactory returns the query executor factory for a driver.
// Returns nil if the driver is not compiled in.
func getExecutorFactory(driver string) func(ctx context.Context, dsn string) (QueryExecutor, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[driver]; ok {
		return reg.ExecutorFactory
	}
	return nil
}

// IsRegistered checks if a driver is compiled into this build.
func IsRegistered(driver string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[driver]
	return ok
}
