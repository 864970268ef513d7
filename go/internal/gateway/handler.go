package gateway

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for show connections.
type WebSocketHandler struct {
	hub *Hub
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleShowConnection handles WebSocket connections for the event stream.
func (h *WebSocketHandler) HandleShowConnection(w http.ResponseWriter, r *http.Request) {
	// In production the client identity would come from a JWT or session;
	// here it is a query parameter, defaulting to a fresh anonymous ID.
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = "viewer-" + uuid.New().String()
	}

	if err := h.hub.UpgradeConnection(w, r, clientID); err != nil {
		log.Error().
			Err(err).
			Str("client_id", clientID).
			Msg("failed to upgrade WebSocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}
}

// HandleConnectionStats returns statistics about active connections.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("{\"total_connections\":" + strconv.Itoa(h.hub.ConnectionCount()) + "}"))
}

// RegisterRoutes registers WebSocket routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleShowConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
