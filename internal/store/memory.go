package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps snapshots in process memory
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]*Snapshot)}
}

// Save stores or replaces the snapshot
func (m *MemoryStore) Save(_ context.Context, snap *Snapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	stored := *snap
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.Config.ID] = &stored
	return nil
}

// Get returns a copy of the snapshot
func (m *MemoryStore) Get(_ context.Context, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *snap
	return &out, nil
}

// List returns every share configuration, newest first
func (m *MemoryStore) List(_ context.Context) ([]ReportConfig, error) {
	m.mu.RLock()
	configs := make([]ReportConfig, 0, len(m.snapshots))
	for _, snap := range m.snapshots {
		configs = append(configs, snap.Config)
	}
	m.mu.RUnlock()

	sortNewestFirst(configs)
	return configs, nil
}

// Delete removes the snapshot
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[id]; !ok {
		return ErrNotFound
	}
	delete(m.snapshots, id)
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}

func sortNewestFirst(configs []ReportConfig) {
	sort.Slice(configs, func(i, j int) bool {
		if !configs[i].CreatedAt.Equal(configs[j].CreatedAt) {
			return configs[i].CreatedAt.After(configs[j].CreatedAt)
		}
		return configs[i].ID < configs[j].ID
	})
}
