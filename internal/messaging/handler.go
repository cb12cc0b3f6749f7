package messaging

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

// Handler serves the chat REST endpoints. Real-time delivery goes through the
// Hub; these routes are the history and fallback surface.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a messaging handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("messaging: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// ContactsResponse wraps the actor's chat contacts.
type ContactsResponse struct {
	Contacts []Contact `json:"contacts"`
	Count    int       `json:"count"`
}

// Contacts handles GET /chat/contacts.
func (h *Handler) Contacts(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	contacts, err := h.service.Contacts(r.Context(), actor)
	if err != nil {
		h.logger.Error("failed to list chat contacts", "error", err, "uid", actor.ID)
		http.Error(w, "failed to list contacts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ContactsResponse{Contacts: contacts, Count: len(contacts)})
}

// HistoryResponse wraps a conversation thread.
type HistoryResponse struct {
	Messages []*Message `json:"messages"`
	Count    int        `json:"count"`
}

// History handles GET /chat/conversations/{peerID}/messages.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	peerID := chi.URLParam(r, "peerID")

	msgs, err := h.service.History(r.Context(), actor, peerID)
	if err != nil {
		if errors.Is(err, ErrNotParticipant) {
			http.Error(w, "no conversation with this user", http.StatusForbidden)
			return
		}
		h.logger.Error("failed to load chat history", "error", err, "uid", actor.ID, "peer_uid", peerID)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Messages: msgs, Count: len(msgs)})
}

// SendRequest is the body for POST /chat/conversations/{peerID}/messages.
type SendRequest struct {
	Text string `json:"text"`
}

// Send handles POST /chat/conversations/{peerID}/messages, the HTTP fallback
// for clients without a WebSocket connection.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	peerID := chi.URLParam(r, "peerID")

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.service.Send(r.Context(), actor, peerID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			http.Error(w, "message text required", http.StatusBadRequest)
		case errors.Is(err, ErrNotParticipant):
			http.Error(w, "no conversation with this user", http.StatusForbidden)
		default:
			h.logger.Error("failed to send message", "error", err, "uid", actor.ID, "peer_uid", peerID)
			http.Error(w, "failed to send message", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// Delete handles DELETE /chat/conversations/{peerID}/messages/{messageID}.
// Removal is scoped to the caller's view.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	peerID := chi.URLParam(r, "peerID")
	messageID := chi.URLParam(r, "messageID")

	err := h.service.DeleteForMe(r.Context(), actor, peerID, messageID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotParticipant):
			http.Error(w, "no conversation with this user", http.StatusForbidden)
		case errors.Is(err, ErrMessageNotFound):
			http.Error(w, "message not found", http.StatusNotFound)
		default:
			h.logger.Error("failed to delete message", "error", err, "uid", actor.ID, "message_id", messageID)
			http.Error(w, "failed to delete message", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
