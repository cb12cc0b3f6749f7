package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eclinicgh/telehealth-platform/internal/identity"
)

// InMemoryStore implements Store for tests and local development. It enforces
// the same conditional-create semantics as the DynamoDB store: one claim per
// slot, checked and written under a single lock.
type InMemoryStore struct {
	mu     sync.Mutex
	appts  map[string]*Appointment
	claims map[string]string // slot key -> appointment id
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory appointment store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		appts:  make(map[string]*Appointment),
		claims: make(map[string]string),
	}
}

// Create claims the slot and stores the appointment atomically.
func (s *InMemoryStore) Create(ctx context.Context, appt *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := SlotKey(appt.ProviderUID, appt.Date, appt.Time)
	if _, taken := s.claims[key]; taken {
		return ErrSlotTaken
	}
	appt.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	clone := *appt
	s.claims[key] = appt.ID
	s.appts[appt.ID] = &clone
	return nil
}

// Get fetches an appointment by id.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	clone := *appt
	return &clone, nil
}

// UpdateStatus applies the transition and releases the claim when the target
// status is terminal.
func (s *InMemoryStore) UpdateStatus(ctx context.Context, appt *Appointment, to Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.appts[appt.ID]
	if !ok {
		return ErrAppointmentNotFound
	}
	if stored.Status != appt.Status {
		// A concurrent transition won.
		return ErrInvalidTransition
	}
	stored.Status = to
	if to.Terminal() {
		delete(s.claims, SlotKey(stored.ProviderUID, stored.Date, stored.Time))
	}
	appt.Status = to
	return nil
}

// ListForActor lists the actor's appointments, newest date first to match the
// portal's ordering.
func (s *InMemoryStore) ListForActor(ctx context.Context, actor identity.Actor) ([]*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Appointment
	for _, appt := range s.appts {
		if appt.PatientUID != actor.ID && appt.ProviderUID != actor.ID {
			continue
		}
		clone := *appt
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Time > out[j].Time
	})
	return out, nil
}

// ClaimedTimes returns claimed labels for a provider and date.
func (s *InMemoryStore) ClaimedTimes(ctx context.Context, providerUID, date string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var times []string
	for _, appt := range s.appts {
		if appt.ProviderUID != providerUID || appt.Date != date || appt.Status.Terminal() {
			continue
		}
		times = append(times, appt.Time)
	}
	sort.Strings(times)
	return times, nil
}
