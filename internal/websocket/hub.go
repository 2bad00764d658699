package websocket

import (
	"chat-gateway/pkg/logger"
)

type broadcastMessage struct {
	data    []byte
	exclude string
}

type directMessage struct {
	connID string
	data   []byte
}

// Hub owns the set of websocket clients attached to this instance and
// serializes all delivery through its run loop. It satisfies chat.Sender.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMessage
	direct     chan directMessage
	shutdown   chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMessage, 256),
		direct:     make(chan directMessage, 256),
		shutdown:   make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.shutdown:
			for _, client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[string]*Client)
			return

		case client := <-h.register:
			h.clients[client.ID] = client
			logger.L().Debug().Str("conn_id", client.ID).Msg("client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				logger.L().Debug().Str("conn_id", client.ID).Msg("client unregistered")
			}

		case msg := <-h.broadcast:
			for connID, client := range h.clients {
				if connID == msg.exclude {
					continue
				}
				h.deliver(client, msg.data)
			}

		case msg := <-h.direct:
			if client, ok := h.clients[msg.connID]; ok {
				h.deliver(client, msg.data)
			}
		}
	}
}

// deliver is non-blocking: a client whose send buffer is full is dropped
// rather than stalling delivery for the rest of the room.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		delete(h.clients, client.ID)
		close(client.send)
		logger.L().Warn().Str("conn_id", client.ID).Msg("client send buffer full, dropping connection")
	}
}

func (h *Hub) Register(c *Client) {
	h.register <- c
}

func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Broadcast delivers data to every connected client except excludeConnID.
func (h *Hub) Broadcast(data []byte, excludeConnID string) {
	select {
	case h.broadcast <- broadcastMessage{data: data, exclude: excludeConnID}:
	case <-h.shutdown:
	}
}

// Send delivers data to a single connection, if it is still attached.
func (h *Hub) Send(connID string, data []byte) {
	select {
	case h.direct <- directMessage{connID: connID, data: data}:
	case <-h.shutdown:
	}
}

func (h *Hub) Shutdown() {
	close(h.shutdown)
}
