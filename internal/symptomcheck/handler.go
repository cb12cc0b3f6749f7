package symptomcheck

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

// Handler serves the symptom checker endpoint.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a symptom check handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("symptomcheck: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// CheckRequest is the body for POST /symptom-check.
type CheckRequest struct {
	Description string `json:"description"`
}

// Check handles POST /symptom-check.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	if _, ok := identity.ActorFromContext(r.Context()); !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	suggestion, err := h.service.Check(r.Context(), req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrDescriptionTooShort):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "could not produce a suggestion, please try again", http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(suggestion)
}
