// Package revocation tracks revoked session tokens by jti.
package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory revocation list for single-instance deployments
// and tests. Entries expire lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemory constructs an empty in-memory revocation list.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time)}
}

// Revoke marks a jti revoked until its TTL elapses.
func (m *Memory) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[jti] = time.Now().Add(ttl)
	return nil
}

// IsRevoked reports whether a jti is currently revoked.
func (m *Memory) IsRevoked(ctx context.Context, jti string) (bool, error) {
	m.mu.RLock()
	expiry, ok := m.entries[jti]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		m.mu.Lock()
		delete(m.entries, jti)
		m.mu.Unlock()
		return false, nil
	}
	return true, nil
}
