package graph

import (
	"context"
	"sort"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string][]Record
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string][]Record)}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// SaveDocument stores a deep copy of records.
func (m *MemStore) SaveDocument(_ context.Context, name string, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[name] = cloneRecords(records)
	return nil
}

// LoadDocument returns a deep copy of the stored records, or nil if not found.
func (m *MemStore) LoadDocument(_ context.Context, name string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records, ok := m.docs[name]
	if !ok {
		return nil, nil
	}
	return cloneRecords(records), nil
}

// ListDocuments returns stored document names in sorted order.
func (m *MemStore) ListDocuments(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.docs))
	for name := range m.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemStore) DeleteDocument(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, name)
	return nil
}

// Stats counts documents, symbols and edges of both relations.
func (m *MemStore) Stats(_ context.Context) (*StoreStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := &StoreStats{Documents: len(m.docs)}
	for _, records := range m.docs {
		st.Symbols += len(records)
		for i := range records {
			st.AttachmentEdges += len(records[i].Outlinks)
			out, err := linkList(&records[i].Node, KeyPrecedenceOutlinks)
			if err != nil {
				return nil, err
			}
			st.PrecedenceEdges += len(out)
		}
	}
	return st, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
