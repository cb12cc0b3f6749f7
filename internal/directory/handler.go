package directory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

// Handler serves user and provider directory endpoints.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates a directory handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if store == nil {
		panic("directory: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// RegisterRequest is the body for completing a profile after signup with the
// auth provider.
type RegisterRequest struct {
	Email          string       `json:"email"`
	FullName       string       `json:"fullName"`
	AvatarURL      string       `json:"avatarUrl"`
	Specialty      string       `json:"specialty"`
	Hospital       string       `json:"hospital"`
	Bio            string       `json:"bio"`
	Qualifications []string     `json:"qualifications"`
	Availability   Availability `json:"availability"`
}

// Register handles POST /users/register. The uid and role come from the token,
// never the body.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user := &User{
		UID:            actor.ID,
		Email:          req.Email,
		FullName:       req.FullName,
		Role:           actor.Role,
		AvatarURL:      req.AvatarURL,
		Specialty:      req.Specialty,
		Hospital:       req.Hospital,
		Bio:            req.Bio,
		Qualifications: req.Qualifications,
		Availability:   req.Availability,
	}
	if err := h.store.PutUser(r.Context(), user); err != nil {
		h.logger.Error("failed to register user", "error", err, "uid", actor.ID)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("user registered", "uid", user.UID, "role", user.Role)
	writeJSON(w, http.StatusCreated, user)
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	user, err := h.store.GetUser(r.Context(), actor.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load profile", "error", err, "uid", actor.ID)
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListProvidersResponse wraps the provider list.
type ListProvidersResponse struct {
	Providers []*User `json:"providers"`
	Count     int     `json:"count"`
}

// ListProviders handles GET /providers.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.store.ListProviders(r.Context(), r.URL.Query().Get("specialty"))
	if err != nil {
		h.logger.Error("failed to list providers", "error", err)
		http.Error(w, "failed to list providers", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListProvidersResponse{Providers: providers, Count: len(providers)})
}

// GetProvider handles GET /providers/{providerID}.
func (h *Handler) GetProvider(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	user, err := h.store.GetUser(r.Context(), providerID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "provider not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load provider", "error", err, "provider_uid", providerID)
		http.Error(w, "failed to load provider", http.StatusInternalServerError)
		return
	}
	if user.Role != identity.RoleProvider {
		http.Error(w, "provider not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateAvailabilityRequest is the body for PUT /providers/me/availability.
type UpdateAvailabilityRequest struct {
	Availability Availability `json:"availability"`
}

// UpdateAvailability handles PUT /providers/me/availability.
func (h *Handler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req UpdateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.store.UpdateAvailability(r.Context(), actor, req.Availability)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotOwner):
			http.Error(w, "only providers may publish availability", http.StatusForbidden)
		case errors.Is(err, ErrUserNotFound):
			http.Error(w, "profile not found", http.StatusNotFound)
		default:
			h.logger.Error("failed to update availability", "error", err, "uid", actor.ID)
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
