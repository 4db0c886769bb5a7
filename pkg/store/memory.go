package store

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/flowboard/pkg/flow"
)

// MemoryStore is an in-memory Store for development and testing.
// All data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	charts map[int64]*flow.Flowchart
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{charts: make(map[int64]*flow.Flowchart)}
}

// Create assigns the next numeric ID and revision 1.
func (s *MemoryStore) Create(ctx context.Context, fc *flow.Flowchart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	fc.ID = s.nextID
	fc.Revision = 1
	s.charts[fc.ID] = fc.Clone()
	return nil
}

// Get returns a copy of the stored flowchart.
func (s *MemoryStore) Get(ctx context.Context, id int64) (*flow.Flowchart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fc, ok := s.charts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return fc.Clone(), nil
}

// List returns copies of all flowcharts in ascending ID order.
func (s *MemoryStore) List(ctx context.Context) ([]*flow.Flowchart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*flow.Flowchart, 0, len(s.charts))
	for _, fc := range s.charts {
		out = append(out, fc.Clone())
	}
	slices.SortFunc(out, func(a, b *flow.Flowchart) int {
		return int(a.ID - b.ID)
	})
	return out, nil
}

// Update replaces the stored document and bumps its revision.
func (s *MemoryStore) Update(ctx context.Context, fc *flow.Flowchart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.charts[fc.ID]
	if !ok {
		return ErrNotFound
	}
	fc.Revision = current.Revision + 1
	s.charts[fc.ID] = fc.Clone()
	return nil
}

// Delete removes a flowchart.
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.charts[id]; !ok {
		return ErrNotFound
	}
	delete(s.charts, id)
	return nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
