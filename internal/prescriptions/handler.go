package prescriptions

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eclinicgh/telehealth-platform/internal/directory"
	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

// Handler serves the prescription endpoints.
type Handler struct {
	store     Store
	directory directory.Store
	logger    *logging.Logger
}

// NewHandler creates a prescriptions handler.
func NewHandler(store Store, dir directory.Store, logger *logging.Logger) *Handler {
	if store == nil {
		panic("prescriptions: store required")
	}
	if dir == nil {
		panic("prescriptions: directory store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, directory: dir, logger: logger}
}

// IssueRequest is the body for POST /prescriptions.
type IssueRequest struct {
	PatientUID string `json:"patientUid"`
	Medication string `json:"medication"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency"`
	Duration   string `json:"duration"`
	Notes      string `json:"notes"`
}

// Issue handles POST /prescriptions. Only providers may issue.
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	if !actor.IsProvider() {
		http.Error(w, "only providers may issue prescriptions", http.StatusForbidden)
		return
	}

	var req IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	patient, err := h.directory.GetUser(r.Context(), req.PatientUID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load patient", "error", err, "patient_uid", req.PatientUID)
		http.Error(w, "failed to load patient", http.StatusInternalServerError)
		return
	}
	if patient.Role != identity.RolePatient {
		http.Error(w, "patient not found", http.StatusNotFound)
		return
	}
	provider, err := h.directory.GetUser(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("failed to load provider profile", "error", err, "provider_uid", actor.ID)
		http.Error(w, "failed to load provider profile", http.StatusInternalServerError)
		return
	}

	p := &Prescription{
		ID:          uuid.NewString(),
		PatientUID:  patient.UID,
		ProviderUID: provider.UID,
		Patient:     patient.Snapshot(),
		Provider:    provider.Snapshot(),
		Medication:  strings.TrimSpace(req.Medication),
		Dosage:      strings.TrimSpace(req.Dosage),
		Frequency:   strings.TrimSpace(req.Frequency),
		Duration:    strings.TrimSpace(req.Duration),
		Notes:       strings.TrimSpace(req.Notes),
		IssuedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.store.Put(r.Context(), p); err != nil {
		h.logger.Error("failed to issue prescription", "error", err, "provider_uid", actor.ID)
		http.Error(w, "failed to issue prescription", http.StatusInternalServerError)
		return
	}

	h.logger.Info("prescription issued",
		"prescription_id", p.ID,
		"provider_uid", p.ProviderUID,
		"patient_uid", p.PatientUID,
		"medication", p.Medication,
	)
	writeJSON(w, http.StatusCreated, p)
}

// ListResponse wraps the actor's prescription list.
type ListResponse struct {
	Prescriptions []*Prescription `json:"prescriptions"`
	Count         int             `json:"count"`
}

// List handles GET /prescriptions. Patients see prescriptions issued to them,
// providers see prescriptions they issued.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	items, err := h.store.ListForActor(r.Context(), actor)
	if err != nil {
		h.logger.Error("failed to list prescriptions", "error", err, "actor_uid", actor.ID)
		http.Error(w, "failed to list prescriptions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Prescriptions: items, Count: len(items)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
