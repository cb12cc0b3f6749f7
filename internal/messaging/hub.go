package messaging

import (
	"net/http"
	"strings"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/eclinicgh/telehealth-platform/internal/identity"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

// Hub keeps one live WebSocket connection per user and pushes new messages to
// the recipient as they arrive.
type Hub struct {
	service *Service
	logger  *logging.Logger

	mu    sync.RWMutex
	conns map[string]*wsConn // uid -> active connection
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}
}

var _ Deliverer = (*Hub)(nil)

// NewHub creates a chat hub. Attach it to the service with SetDeliverer or by
// passing it as the service's deliverer at construction.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{logger: logger, conns: make(map[string]*wsConn)}
}

// Bind wires the service the hub forwards inbound frames to.
func (h *Hub) Bind(service *Service) {
	h.service = service
}

// inboundFrame is what a connected client sends.
type inboundFrame struct {
	Type    string `json:"type"` // "message", "ping"
	PeerUID string `json:"peerUid"`
	Text    string `json:"text"`
}

// outboundFrame is what the hub sends to a connected client.
type outboundFrame struct {
	Type    string   `json:"type"` // "message", "pong", "error"
	Message *Message `json:"message,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// HandleWebSocket upgrades to WebSocket for real-time chat. It must be
// mounted behind the auth middleware.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r, actor)
	}).ServeHTTP(w, r)
}

func (h *Hub) serveWS(conn *websocket.Conn, r *http.Request, actor identity.Actor) {
	wsc := &wsConn{conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	h.conns[actor.ID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.conns[actor.ID] == wsc {
			delete(h.conns, actor.ID)
		}
		h.mu.Unlock()
		close(wsc.done)
	}()

	h.logger.Info("chat connection opened", "uid", actor.ID)

	for {
		var frame inboundFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			h.logger.Debug("chat connection closed", "uid", actor.ID, "error", err)
			return
		}

		if frame.Type == "ping" {
			_ = websocket.JSON.Send(conn, outboundFrame{Type: "pong"})
			continue
		}
		if frame.Type != "message" || strings.TrimSpace(frame.Text) == "" {
			continue
		}
		if h.service == nil {
			continue
		}

		msg, err := h.service.Send(r.Context(), actor, frame.PeerUID, frame.Text)
		if err != nil {
			_ = websocket.JSON.Send(conn, outboundFrame{Type: "error", Text: "message could not be sent"})
			continue
		}
		// Echo to the sender so all of their views converge.
		_ = websocket.JSON.Send(conn, outboundFrame{Type: "message", Message: msg})
	}
}

// Deliver pushes a message to the recipient's live connection, if any.
func (h *Hub) Deliver(recipientUID string, msg *Message) {
	h.mu.RLock()
	wsc, ok := h.conns[recipientUID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = websocket.JSON.Send(wsc.conn, outboundFrame{Type: "message", Message: msg})
}
