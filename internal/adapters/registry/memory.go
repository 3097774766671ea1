// Package registry provides an in-memory ports.DeviceRegistry for tests
// and mock-mode runs. A production deployment's full registry
// (persistence, OUI/fingerprint enrichment, behavioral scoring) is out of
// scope per spec.md §1; the Attack Engine only ever reads through
// ports.DeviceRegistry, so any implementation satisfying that interface
// is interchangeable.
package registry

import (
	"sync"

	"github.com/lcalzada-xor/wmapattack/internal/core/domain"
)

// Memory is a concurrency-safe in-memory DeviceRegistry, grounded on the
// sync.RWMutex-guarded map pattern used throughout the teacher's sniffer
// adapters (e.g. HandshakeManager's bssidToEssid map).
type Memory struct {
	mu  sync.RWMutex
	aps map[domain.MacAddress]*domain.AccessPoint
}

// NewMemory creates an empty registry.
func NewMemory() *Memory {
	return &Memory{aps: make(map[domain.MacAddress]*domain.AccessPoint)}
}

// GetAccessPoint implements ports.DeviceRegistry.
func (m *Memory) GetAccessPoint(mac domain.MacAddress) (*domain.AccessPoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ap, ok := m.aps[mac]
	return ap, ok
}

// Put inserts or replaces an AP record.
func (m *Memory) Put(ap *domain.AccessPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aps[ap.MAC] = ap
}

// EnsureAccessPoint returns the AP record for mac, creating an empty one
// (auth_sequence.state == 0, per spec.md §3 lifecycle) if it doesn't
// exist yet.
func (m *Memory) EnsureAccessPoint(mac domain.MacAddress) *domain.AccessPoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	ap, ok := m.aps[mac]
	if !ok {
		ap = &domain.AccessPoint{MAC: mac}
		m.aps[mac] = ap
	}
	return ap
}

// All returns a snapshot slice of every known AP, used by the tick loop
// to walk known APs (spec.md §2 "Data flow").
func (m *Memory) All() []*domain.AccessPoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.AccessPoint, 0, len(m.aps))
	for _, ap := range m.aps {
		out = append(out, ap)
	}
	return out
}
