package datasource

import (
	"context"
	"fmt"
)

// Factory creates adapters from the registry. Services depend on this
// interface so tests can substitute fakes.
type Factory interface {
	// NewQueryExecutor creates a query executor for the given driver.
	NewQueryExecutor(ctx context.Context, driver, dsn string) (QueryExecutor, error)

	// NewConnectionTester creates a connection tester for the given driver.
	NewConnectionTester(ctx context.Context, driver, dsn string) (ConnectionTester, error)

	// ListDrivers returns info for all compiled-in adapters.
	ListDrivers() []AdapterInfo
}

type registryFactory struct{}

// NewFactory returns a Factory backed by the global registry.
func NewFactory() Factory {
	return &registryFactory{}
}

func (f *registryFactory) NewQueryExecutor(ctx context.Context, driver, dsn string) (QueryExecutor, error) {
	factory := getExecutorFactory(driver)
	if factory == nil {
		return nil, fmt.Errorf("unsupported datasource driver: %s (not compiled in)", driver)
	}
	return factory(ctx, dsn)
}

func (f *registryFactory) NewConnectionTester(ctx context.Context, driver, dsn string) (ConnectionTester, error) {
	factory := getTesterFactory(driver)
	if factory == nil {
		return nil, fmt.Errorf("unsupported datasource driver: %s (not compiled in)", driver)
	}
	return factory(ctx, dsn)
}

func (f *registryFactory) ListDrivers() []AdapterInfo {
	return RegisteredAdapters()
}

// Ensure registryFactory implements Factory at compile time.
var _ Factory = (*registryFactory)(nil)
