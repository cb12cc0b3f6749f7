package prescriptions

import (
	"context"
	"sort"
	"sync"

	"github.com/eclinicgh/telehealth-platform/internal/identity"
)

// InMemoryStore keeps prescriptions in memory for tests and local runs.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[string]*Prescription
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[string]*Prescription)}
}

// Put stores a copy of the prescription.
func (s *InMemoryStore) Put(ctx context.Context, p *Prescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *p
	s.items[p.ID] = &clone
	return nil
}

// Get returns a copy of the prescription with the given id.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*Prescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[id]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}
	clone := *p
	return &clone, nil
}

// ListForActor returns the actor's prescriptions newest first.
func (s *InMemoryStore) ListForActor(ctx context.Context, actor identity.Actor) ([]*Prescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Prescription, 0)
	for _, p := range s.items {
		uid := p.PatientUID
		if actor.IsProvider() {
			uid = p.ProviderUID
		}
		if uid == actor.ID {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt > out[j].IssuedAt })
	return out, nil
}
