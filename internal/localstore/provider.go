// Package localstore persists small client-side values (the session token) across
// process restarts. It plays the role of a browser's localStorage.
package localstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/starford/folio/internal/apperr"
)

// Drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Provider is a string key/value store.
type Provider interface {
	// Get returns apperr.ErrNotFound when the key is absent.
	Get(key string) (string, error)
	Set(key, value string) error
	// Delete is a no-op for absent keys.
	Delete(key string) error
	Close() error
}

// ChangeFunc is called with the key that changed and whether it was removed.
type ChangeFunc func(key string, removed bool)

// Watcher is implemented by providers that can observe writes made by other processes.
type Watcher interface {
	Watch(ctx context.Context, fn ChangeFunc) error
}

// Open opens the provider for driver at path.
func Open(driver, path string) (Provider, error) {
	switch driver {
	case DriverFile, "":
		return NewFS(path)
	case DriverSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("localstore: unknown driver %q", driver)
	}
}

// Memory is a process-local Provider, used when nothing should touch disk.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", apperr.ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Close() error { return nil }
