// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"sync"

	"github.com/hashicorp/capflow/oidc/flow"
)

// Map is an in memory flow.SessionStore.  The zero value is not usable, see
// NewMap.
type Map struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

var _ flow.SessionStore = (*Map)(nil)

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{values: map[string]interface{}{}}
}

// Get returns the value stored under key, or nil.
func (m *Map) Get(_ context.Context, key string) (interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

// Set stores the value under key.
func (m *Map) Set(_ context.Context, key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes key.  It's a no-op when the key doesn't exist.
func (m *Map) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len returns the number of values stored.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
