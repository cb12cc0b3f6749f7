package directory

import (
	"context"
	"sort"
	"sync"

	"github.com/eclinicgh/telehealth-platform/internal/identity"
)

// InMemoryStore is a Store for tests and local development.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]*User)}
}

// GetUser retrieves a user by id.
func (s *InMemoryStore) GetUser(ctx context.Context, uid string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

// PutUser upserts a user.
func (s *InMemoryStore) PutUser(ctx context.Context, user *User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *user
	s.users[user.UID] = &clone
	return nil
}

// ListProviders lists provider accounts sorted by name for stable output.
func (s *InMemoryStore) ListProviders(ctx context.Context, specialty string) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var providers []*User
	for _, user := range s.users {
		if user.Role != identity.RoleProvider {
			continue
		}
		if specialty != "" && user.Specialty != specialty {
			continue
		}
		clone := *user
		providers = append(providers, &clone)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].FullName < providers[j].FullName })
	return providers, nil
}

// UpdateAvailability replaces the availability map on the actor's document.
func (s *InMemoryStore) UpdateAvailability(ctx context.Context, actor identity.Actor, avail Availability) (*User, error) {
	if !actor.IsProvider() {
		return nil, ErrNotOwner
	}
	if err := avail.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[actor.ID]
	if !ok || user.Role != identity.RoleProvider {
		return nil, ErrUserNotFound
	}
	user.Availability = avail
	clone := *user
	return &clone, nil
}
