package handlers

import (
	"context"
	"net/http"

	"chat-gateway/internal/chat"
	"chat-gateway/internal/relay"
	ws "chat-gateway/internal/websocket"
	"chat-gateway/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	hub      *ws.Hub
	gateway  *chat.Gateway
	bus      relay.Relay
	upgrader websocket.Upgrader
}

func NewWebSocketHandlers(hub *ws.Hub, gateway *chat.Gateway, bus relay.Relay) *WebSocketHandlers {
	return &WebSocketHandlers{
		hub:     hub,
		gateway: gateway,
		bus:     bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Error().Err(err).Msg("websocket upgrade error")
		return
	}

	connID := uuid.New().String()
	client := ws.NewClient(connID, h.hub, conn, h.gateway, h.bus)

	h.hub.Register(client)
	h.bus.Publish(relay.TopicRoomJoined, relay.MembershipEvent{ConnID: connID, Room: chat.RoomName})

	logger.L().Info().Str("conn_id", connID).Msg("client connected")

	go client.WritePump()
	go client.ReadPump()

	// Fast-path history for the fresh socket.
	go h.gateway.Connect(context.Background(), connID)
}
