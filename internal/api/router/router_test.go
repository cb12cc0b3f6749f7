package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclinicgh/telehealth-platform/internal/directory"
	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/internal/messaging"
	"github.com/eclinicgh/telehealth-platform/internal/prescriptions"
	"github.com/eclinicgh/telehealth-platform/internal/scheduling"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

const testSecret = "router-test-secret"

func mintToken(t *testing.T, uid string, role identity.Role) string {
	t.Helper()
	claims := identity.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: string(role),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newTestAPI(t *testing.T) http.Handler {
	t.Helper()
	logger := logging.Default()
	ctx := context.Background()

	dir := directory.NewInMemoryStore()
	require.NoError(t, dir.PutUser(ctx, &directory.User{
		UID: "user-001", Email: "k.mensah@email.com", FullName: "Kwame Mensah", Role: identity.RolePatient,
	}))
	require.NoError(t, dir.PutUser(ctx, &directory.User{
		UID: "doc-001", Email: "dr.ama@eclinic.gh", FullName: "Dr. Ama Adom", Role: identity.RoleProvider,
		Specialty: "Cardiologist",
		Availability: directory.Availability{
			"2024-08-15": {"09:00", "09:30"},
		},
	}))

	apptStore := scheduling.NewInMemoryStore()
	schedService := scheduling.NewService(apptStore, dir, logger)

	hub := messaging.NewHub(logger)
	chatService := messaging.NewService(messaging.NewInMemoryStore(), dir, apptStore, hub, logger)
	hub.Bind(chatService)

	return New(&Config{
		Logger:               logger,
		DirectoryHandler:     directory.NewHandler(dir, logger),
		SchedulingHandler:    scheduling.NewHandler(schedService, logger),
		PrescriptionsHandler: prescriptions.NewHandler(prescriptions.NewInMemoryStore(), dir, logger),
		MessagingHandler:     messaging.NewHandler(chatService, logger),
		ChatHub:              hub,
		AuthJWTSecret:        testSecret,
	})
}

func TestPublicRoutes(t *testing.T) {
	api := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/providers", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var providers directory.ListProvidersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &providers))
	assert.Equal(t, 1, providers.Count)

	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/providers/doc-001/slots?date=2024-08-15", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthedRoutesRejectWithoutToken(t *testing.T) {
	api := newTestAPI(t)

	for _, target := range []string{"/users/me", "/appointments", "/prescriptions", "/chat/contacts"} {
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestBookingFlowThroughRouter(t *testing.T) {
	api := newTestAPI(t)
	patientToken := mintToken(t, "user-001", identity.RolePatient)
	providerToken := mintToken(t, "doc-001", identity.RoleProvider)

	// Patient books.
	body, _ := json.Marshal(scheduling.BookRequest{
		ProviderUID: "doc-001", Date: "2024-08-15", Time: "09:00", Reason: "Checkup",
	})
	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+patientToken)
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var appt scheduling.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
	assert.Equal(t, scheduling.StatusPending, appt.Status)

	// The booked slot disappears from the public resolver.
	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/providers/doc-001/slots?date=2024-08-15", nil))
	var slots scheduling.OpenSlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slots))
	assert.Equal(t, []string{"09:30"}, slots.Slots)

	// Provider approves.
	body, _ = json.Marshal(scheduling.TransitionRequest{Status: scheduling.StatusUpcoming})
	req = httptest.NewRequest(http.MethodPost, "/appointments/"+appt.ID+"/status", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+providerToken)
	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Both parties now share a chat contact.
	req = httptest.NewRequest(http.MethodGet, "/chat/contacts", nil)
	req.Header.Set("Authorization", "Bearer "+patientToken)
	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var contacts messaging.ContactsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contacts))
	assert.Equal(t, 1, contacts.Count)
}
