package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/eclinicgh/telehealth-platform/internal/identity"
)

func providerFixture() *User {
	return &User{
		UID:       "doc-001",
		Email:     "dr.ama@eclinic.gh",
		FullName:  "Dr. Ama Adom",
		Role:      identity.RoleProvider,
		Specialty: "Cardiologist",
		Availability: Availability{
			"2024-08-15": {"09:00", "09:30", "10:00", "11:15"},
			"2024-08-16": {"14:00", "14:30", "15:00"},
		},
	}
}

func TestInMemoryStore_PutAndGet(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.PutUser(ctx, providerFixture()); err != nil {
		t.Fatalf("PutUser: %v", err)
	}

	user, err := store.GetUser(ctx, "doc-001")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.FullName != "Dr. Ama Adom" {
		t.Errorf("unexpected name %q", user.FullName)
	}
	if got := user.Availability.TimesOn("2024-08-15"); len(got) != 4 {
		t.Errorf("expected 4 labels, got %v", got)
	}

	if _, err := store.GetUser(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestInMemoryStore_ListProvidersFiltersBySpecialty(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = store.PutUser(ctx, providerFixture())
	_ = store.PutUser(ctx, &User{
		UID: "doc-002", FullName: "Dr. Baffour Asare", Role: identity.RoleProvider, Specialty: "Neurologist",
	})
	_ = store.PutUser(ctx, &User{
		UID: "user-001", FullName: "Kwame Mensah", Role: identity.RolePatient,
	})

	all, err := store.ListProviders(ctx, "")
	if err != nil {
		t.Fatalf("ListProviders: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(all))
	}

	cardio, err := store.ListProviders(ctx, "Cardiologist")
	if err != nil {
		t.Fatalf("ListProviders filtered: %v", err)
	}
	if len(cardio) != 1 || cardio[0].UID != "doc-001" {
		t.Errorf("unexpected filtered result: %+v", cardio)
	}
}

func TestInMemoryStore_UpdateAvailabilityOwnership(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	_ = store.PutUser(ctx, providerFixture())

	patient := identity.Actor{ID: "user-001", Role: identity.RolePatient}
	if _, err := store.UpdateAvailability(ctx, patient, Availability{}); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner for patient, got %v", err)
	}

	owner := identity.Actor{ID: "doc-001", Role: identity.RoleProvider}
	updated, err := store.UpdateAvailability(ctx, owner, Availability{"2024-08-20": {"09:00"}})
	if err != nil {
		t.Fatalf("UpdateAvailability: %v", err)
	}
	if got := updated.Availability.TimesOn("2024-08-20"); len(got) != 1 || got[0] != "09:00" {
		t.Errorf("availability not replaced: %v", updated.Availability)
	}
}

func TestAvailabilityValidate(t *testing.T) {
	tests := []struct {
		name    string
		avail   Availability
		wantErr bool
	}{
		{"valid", Availability{"2024-08-15": {"09:00", "09:30"}}, false},
		{"empty map", Availability{}, false},
		{"bad date", Availability{"15-08-2024": {"09:00"}}, true},
		{"bad label", Availability{"2024-08-15": {"9am"}}, true},
		{"duplicate label", Availability{"2024-08-15": {"09:00", "09:00"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.avail.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
