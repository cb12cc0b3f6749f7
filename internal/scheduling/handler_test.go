package scheduling

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

func newTestRouter(t *testing.T) (*chi.Mux, *Service) {
	t.Helper()
	svc, _ := newTestService(t)
	h := NewHandler(svc, logging.Default())

	r := chi.NewRouter()
	r.Get("/providers/{providerID}/slots", h.OpenSlots)
	r.Post("/appointments", h.Book)
	r.Get("/appointments", h.List)
	r.Post("/appointments/{appointmentID}/status", h.Transition)
	return r, svc
}

func doRequest(t *testing.T, router http.Handler, actor *identity.Actor, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if actor != nil {
		req = req.WithContext(identity.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerOpenSlots(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, &patientActor, http.MethodGet, "/providers/doc-001/slots?date=2024-08-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp OpenSlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doc-001", resp.ProviderUID)
	assert.Equal(t, []string{"09:00", "09:30"}, resp.Slots)
}

func TestHandlerOpenSlotsErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, &patientActor, http.MethodGet, "/providers/doc-001/slots", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing date")

	rec = doRequest(t, router, &patientActor, http.MethodGet, "/providers/doc-999/slots?date=2024-08-15", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "unknown provider")
}

func TestHandlerBook(t *testing.T) {
	router, _ := newTestRouter(t)
	body := BookRequest{ProviderUID: "doc-001", Date: "2024-08-15", Time: "09:00", Reason: "Checkup"}

	rec := doRequest(t, router, &patientActor, http.MethodPost, "/appointments", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var appt Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, "Dr. Ama Adom", appt.Provider.Name)

	// Same slot again conflicts.
	rec = doRequest(t, router, &patientActor, http.MethodPost, "/appointments", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerBookRejections(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name     string
		actor    *identity.Actor
		body     any
		wantCode int
	}{
		{"no identity", nil, BookRequest{ProviderUID: "doc-001", Date: "2024-08-15", Time: "09:00", Reason: "x"}, http.StatusUnauthorized},
		{"provider books", &providerActor, BookRequest{ProviderUID: "doc-001", Date: "2024-08-15", Time: "09:00", Reason: "x"}, http.StatusForbidden},
		{"empty reason", &patientActor, BookRequest{ProviderUID: "doc-001", Date: "2024-08-15", Time: "09:00"}, http.StatusBadRequest},
		{"undeclared slot", &patientActor, BookRequest{ProviderUID: "doc-001", Date: "2024-08-15", Time: "23:00", Reason: "x"}, http.StatusBadRequest},
		{"malformed body", &patientActor, "not-json", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, tt.actor, http.MethodPost, "/appointments", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestHandlerListScopedToActor(t *testing.T) {
	router, svc := newTestRouter(t)
	ctx := context.Background()

	_, err := svc.Book(ctx, patientActor, BookRequest{
		ProviderUID: "doc-001", Date: "2024-08-15", Time: "09:00", Reason: "Checkup",
	})
	require.NoError(t, err)

	rec := doRequest(t, router, &patientActor, http.MethodGet, "/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	// The provider side sees the same appointment.
	rec = doRequest(t, router, &providerActor, http.MethodGet, "/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	// An unrelated patient sees nothing.
	other := identity.Actor{ID: "user-002", Role: identity.RolePatient}
	rec = doRequest(t, router, &other, http.MethodGet, "/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestHandlerTransition(t *testing.T) {
	router, svc := newTestRouter(t)

	appt, err := svc.Book(context.Background(), patientActor, BookRequest{
		ProviderUID: "doc-001", Date: "2024-08-15", Time: "09:00", Reason: "Checkup",
	})
	require.NoError(t, err)

	// Patient approving their own request is forbidden.
	rec := doRequest(t, router, &patientActor, http.MethodPost, "/appointments/"+appt.ID+"/status", TransitionRequest{Status: StatusUpcoming})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, &providerActor, http.MethodPost, "/appointments/"+appt.ID+"/status", TransitionRequest{Status: StatusUpcoming})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, StatusUpcoming, updated.Status)

	// Repeating the transition is not a valid edge.
	rec = doRequest(t, router, &providerActor, http.MethodPost, "/appointments/"+appt.ID+"/status", TransitionRequest{Status: StatusUpcoming})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doRequest(t, router, &providerActor, http.MethodPost, "/appointments/missing/status", TransitionRequest{Status: StatusUpcoming})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
