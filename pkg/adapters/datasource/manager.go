package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/vantagebi/vantage-engine/pkg/apperrors"
	"github.com/vantagebi/vantage-engine/pkg/config"
)

// Manager hands out one shared QueryExecutor per configured datasource.
// Executors are created lazily on first use: DSNs resolve from the
// environment at creation time, so a missing variable only disables that
// datasource instead of failing startup.
type Manager struct {
	factory Factory
	logger  *zap.Logger

	mu        sync.RWMutex
	entries   map[string]config.DatasourceEntry // key: lowercase name
	executors map[string]QueryExecutor
	closed    bool
}

// DatasourceInfo describes one configured datasource for API listing.
type DatasourceInfo struct {
	Name      string `json:"name"`
	Driver    string `json:"driver"`
	Dialect   string `json:"dialect"`
	Available bool   `json:"available"` // driver compiled into this build
}

// NewManager creates a Manager over the configured datasource entries.
func NewManager(factory Factory, entries []config.DatasourceEntry, logger *zap.Logger) *Manager {
	byName := make(map[string]config.DatasourceEntry, len(entries))
	for _, e := range entries {
		byName[strings.ToLower(e.Name)] = e
	}
	return &Manager{
		factory:   factory,
		logger:    logger,
		entries:   byName,
		executors: make(map[string]QueryExecutor),
	}
}

// Executor returns the shared executor for the named datasource, creating it
// on first use. The Manager owns the executor; callers must not Close it.
func (m *Manager) Executor(ctx context.Context, name string) (QueryExecutor, error) {
	key := strings.ToLower(name)

	// Fast path: already created
	m.mu.RLock()
	exec, ok := m.executors[key]
	closed := m.closed
	m.mu.RUnlock()
	if ok {
		return exec, nil
	}
	if closed {
		return nil, fmt.Errorf("datasource manager is closed")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check under the write lock
	if exec, ok := m.executors[key]; ok {
		return exec, nil
	}
	if m.closed {
		return nil, fmt.Errorf("datasource manager is closed")
	}

	entry, ok := m.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrDatasourceDisabled, name)
	}

	dsn, err := entry.DSN()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDatasourceDisabled, err)
	}

	exec, err = m.factory.NewQueryExecutor(ctx, entry.Driver, ResolveDSNHost(dsn))
	if err != nil {
		return nil, fmt.Errorf("datasource %q: %w", entry.Name, err)
	}

	m.executors[key] = exec
	m.logger.Info("Opened datasource executor",
		zap.String("datasource", entry.Name),
		zap.String("driver", entry.Driver))
	return exec, nil
}

// Tester creates a fresh connection tester for the named datasource.
// Unlike Executor, ownership passes to the caller, who must Close it.
func (m *Manager) Tester(ctx context.Context, name string) (ConnectionTester, error) {
	m.mu.RLock()
	entry, ok := m.entries[strings.ToLower(name)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrDatasourceDisabled, name)
	}

	dsn, err := entry.DSN()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDatasourceDisabled, err)
	}

	return m.factory.NewConnectionTester(ctx, entry.Driver, ResolveDSNHost(dsn))
}

// Dialect returns the substitution dialect for the named datasource.
func (m *Manager) Dialect(name string) (string, error) {
	m.mu.RLock()
	entry, ok := m.entries[strings.ToLower(name)]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", apperrors.ErrDatasourceDisabled, name)
	}
	return entry.DialectName(), nil
}

// List returns the configured datasources sorted by name.
func (m *Manager) List() []DatasourceInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]DatasourceInfo, 0, len(m.entries))
	for _, e := range m.entries {
		infos = append(infos, DatasourceInfo{
			Name:      e.Name,
			Driver:    e.Driver,
			Dialect:   e.DialectName(),
			Available: IsRegistered(e.Driver),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// CloseAll closes every open executor and rejects further use.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, exec := range m.executors {
		if err := exec.Close(); err != nil {
			m.logger.Warn("Failed to close datasource executor",
				zap.String("datasource", name),
				zap.Error(err))
		}
	}
	m.executors = make(map[string]QueryExecutor)
	m.closed = true
}
