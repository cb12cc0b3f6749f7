package directory

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/users/register", h.Register)
	r.Get("/users/me", h.Me)
	r.Get("/providers", h.ListProviders)
	r.Get("/providers/{providerID}", h.GetProvider)
	r.Put("/providers/me/availability", h.UpdateAvailability)
	return r
}

func TestRegisterAndMe(t *testing.T) {
	store := NewInMemoryStore()
	h := NewHandler(store, logging.Default())
	router := newTestRouter(h)
	actor := identity.Actor{ID: "doc-001", Role: identity.RoleProvider}

	body, _ := json.Marshal(RegisterRequest{
		Email:     "dr.ama@eclinic.gh",
		FullName:  "Dr. Ama Adom",
		Specialty: "Cardiologist",
	})
	req := httptest.NewRequest(http.MethodPost, "/users/register", bytes.NewReader(body))
	req = req.WithContext(identity.WithActor(req.Context(), actor))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req = req.WithContext(identity.WithActor(req.Context(), actor))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", w.Code)
	}
	var user User
	if err := json.NewDecoder(w.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.UID != "doc-001" || user.Role != identity.RoleProvider {
		t.Errorf("unexpected profile: %+v", user)
	}
}

func TestGetProvider_PatientIsHidden(t *testing.T) {
	store := NewInMemoryStore()
	_ = store.PutUser(t.Context(), &User{UID: "user-001", FullName: "Kwame Mensah", Role: identity.RolePatient})
	h := NewHandler(store, logging.Default())
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/providers/user-001", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for patient uid via provider route, got %d", w.Code)
	}
}

func TestUpdateAvailability_ForbiddenForPatients(t *testing.T) {
	store := NewInMemoryStore()
	h := NewHandler(store, logging.Default())
	router := newTestRouter(h)

	body, _ := json.Marshal(UpdateAvailabilityRequest{Availability: Availability{"2024-08-15": {"09:00"}}})
	req := httptest.NewRequest(http.MethodPut, "/providers/me/availability", bytes.NewReader(body))
	req = req.WithContext(identity.WithActor(req.Context(), identity.Actor{ID: "user-001", Role: identity.RolePatient}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}
