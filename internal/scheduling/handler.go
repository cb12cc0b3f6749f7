package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eclinicgh/telehealth-platform/internal/directory"
	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

// Handler serves the slot and appointment endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a scheduling handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("scheduling: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// OpenSlotsResponse wraps the open slot labels for a provider and date.
type OpenSlotsResponse struct {
	ProviderUID string   `json:"providerUid"`
	Date        string   `json:"date"`
	Slots       []string `json:"slots"`
}

// OpenSlots handles GET /providers/{providerID}/slots?date=YYYY-MM-DD.
func (h *Handler) OpenSlots(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	date := r.URL.Query().Get("date")

	slots, err := h.service.OpenSlots(r.Context(), providerID, date)
	if err != nil {
		switch {
		case IsValidation(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, directory.ErrUserNotFound):
			http.Error(w, "provider not found", http.StatusNotFound)
		default:
			h.logger.Error("failed to resolve open slots", "error", err, "provider_uid", providerID, "date", date)
			http.Error(w, "failed to resolve open slots", http.StatusInternalServerError)
		}
		return
	}
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, OpenSlotsResponse{ProviderUID: providerID, Date: date, Slots: slots})
}

// Book handles POST /appointments.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Book(r.Context(), actor, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotTaken):
			http.Error(w, "slot already booked", http.StatusConflict)
		case errors.Is(err, ErrProviderCannotBook):
			http.Error(w, "providers cannot book appointments", http.StatusForbidden)
		case IsValidation(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to book appointment", "error", err, "patient_uid", actor.ID)
			http.Error(w, "failed to book appointment", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// List handles GET /appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	appts, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "actor_uid", actor.ID)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Appointments: appts, Count: len(appts)})
}

// ListResponse wraps the actor's appointment list.
type ListResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Count        int            `json:"count"`
}

// TransitionRequest is the body for POST /appointments/{appointmentID}/status.
type TransitionRequest struct {
	Status Status `json:"status"`
}

// Transition handles POST /appointments/{appointmentID}/status.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	appointmentID := chi.URLParam(r, "appointmentID")

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Transition(r.Context(), actor, appointmentID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrAppointmentNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		case errors.Is(err, ErrUnauthorized):
			http.Error(w, "not allowed for this appointment", http.StatusForbidden)
		case errors.Is(err, ErrInvalidTransition):
			http.Error(w, "invalid status transition", http.StatusUnprocessableEntity)
		default:
			h.logger.Error("failed to transition appointment", "error", err, "appointment_id", appointmentID)
			http.Error(w, "failed to transition appointment", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
