package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/slideshow/server/internal/observability"
	"github.com/slideshow/server/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Displays connect from arbitrary origins
		return true
	},
}

// WebSocketHandler handles display WebSocket connections
type WebSocketHandler struct {
	hub *services.WebSocketHub
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *services.WebSocketHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleConnection upgrades HTTP to WebSocket and manages the connection.
// A display may pass ?slideshowId= to subscribe right away.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	var initialTopic string
	if raw := r.URL.Query().Get("slideshowId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid slideshow ID")
			return
		}
		initialTopic = services.SlideshowTopic(id)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		observability.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	client := h.hub.NewClient(uuid.New().String(), conn)
	h.hub.Register(client)
	if initialTopic != "" {
		h.hub.Subscribe(client, initialTopic)
	}

	// Start the write pump in a goroutine
	go client.WritePump()

	// Run the read pump (blocks until connection closes)
	client.ReadPump(h.handleMessage)
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(client *services.WSClient, messageType int, data []byte) {
	if messageType != websocket.TextMessage {
		return
	}

	var msg services.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		observability.WithField("client_id", client.ID).Debugf("Invalid WebSocket message: %v", err)
		return
	}

	switch msg.Type {
	case services.WSTypeSubscribe:
		if topic := messageTopic(msg.Payload); topic != "" {
			h.hub.Subscribe(client, topic)
		}

	case services.WSTypeUnsubscribe:
		if topic := messageTopic(msg.Payload); topic != "" {
			h.hub.Unsubscribe(client, topic)
		}

	case services.WSTypePing:
		if data, err := json.Marshal(services.WSMessage{Type: services.WSTypePong}); err == nil {
			select {
			case client.Send <- data:
			default:
			}
		}

	default:
		observability.WithField("client_id", client.ID).Debugf("Unknown WebSocket message type: %s", msg.Type)
	}
}

// messageTopic accepts "slideshow:1", {"topic": "slideshow:1"} or {"slideshowId": 1}
func messageTopic(payload interface{}) string {
	switch p := payload.(type) {
	case string:
		return p
	case map[string]interface{}:
		if topic, ok := p["topic"].(string); ok {
			return topic
		}
		if id, ok := p["slideshowId"].(float64); ok && id > 0 {
			return services.SlideshowTopic(int64(id))
		}
	}
	return ""
}
