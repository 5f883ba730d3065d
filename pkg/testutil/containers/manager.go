//go:build integration

// Package containers manages shared test containers for integration tests.
// Containers are started once per test binary and reused across suites; Ryuk
// terminates them when the process exits, so nothing registers t.Cleanup.
package containers

import (
	"sync"
	"testing"
)

// Manager hands out shared container instances.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
}

var manager = &Manager{}

func GetManager() *Manager { return manager }

// GetPostgres returns the shared Postgres container, starting it on first use.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postgres == nil {
		m.postgres = NewPostgresContainer(t)
	}
	return m.postgres
}
