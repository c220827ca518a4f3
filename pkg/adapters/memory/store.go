package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/google/uuid"
)

// Store implements ports.FlowchartStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Flowchart
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Flowchart),
	}
}

// Create validates and stores the flowchart under a fresh UUID.
func (s *Store) Create(ctx context.Context, fc *domain.Flowchart) (string, error) {
	if err := fc.Validate(); err != nil {
		return "", err
	}

	// Deep copy to ensure isolation, similar to serialization
	stored := fc.Clone()
	stored.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	for s.data[id] != nil {
		id = uuid.NewString()
	}
	stored.ID = id
	s.data[id] = stored
	return id, nil
}

// Get retrieves a copy of the flowchart.
func (s *Store) Get(ctx context.Context, id string) (*domain.Flowchart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fc, ok := s.data[id]
	if !ok {
		return nil, domain.ErrFlowchartNotFound
	}
	// Copy on read so caller can't mutate store state directly by pointer
	return fc.Clone(), nil
}

// Update replaces the flowchart's nodes and edges after validating them.
func (s *Store) Update(ctx context.Context, id string, fc *domain.Flowchart) (*domain.Flowchart, error) {
	if fc == nil {
		return nil, domain.ErrNilFlowchart
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return nil, domain.ErrFlowchartNotFound
	}
	if err := fc.Validate(); err != nil {
		return nil, err
	}

	stored := fc.Clone()
	stored.Normalize()
	stored.ID = id
	s.data[id] = stored
	return stored.Clone(), nil
}

// Delete removes the flowchart.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return domain.ErrFlowchartNotFound
	}
	delete(s.data, id)
	return nil
}

// List returns the stored flowchart IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
