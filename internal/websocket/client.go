package websocket

import (
	"context"
	"encoding/json"
	"time"

	"chat-gateway/internal/chat"
	"chat-gateway/internal/models"
	"chat-gateway/internal/relay"
	"chat-gateway/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	pongWait       = 60 * time.Second
	pingInterval   = 54 * time.Second
	writeWait      = 10 * time.Second
	maxFrameSize   = 4096
	sendBufferSize = 256
)

// Client is one websocket connection. Inbound frames are decoded into the
// closed set of event payloads and dispatched to the gateway; outbound
// frames arrive pre-encoded on the send channel.
type Client struct {
	ID      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	gateway *chat.Gateway
	bus     relay.Relay
}

func NewClient(id string, hub *Hub, conn *websocket.Conn, gateway *chat.Gateway, bus relay.Relay) *Client {
	return &Client{
		ID:      id,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		gateway: gateway,
		bus:     bus,
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.gateway.Disconnect(context.Background(), c.ID)
		c.bus.Publish(relay.TopicRoomLeft, relay.MembershipEvent{ConnID: c.ID, Room: chat.RoomName})
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.L().Error().Err(err).Str("conn_id", c.ID).Msg("websocket read error")
			}
			break
		}

		c.handleFrame(data)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.L().Error().Err(err).Str("conn_id", c.ID).Msg("websocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame validates the frame shape at the boundary and dispatches to
// the gateway. Operation errors go back to this connection only.
func (c *Client) handleFrame(data []byte) {
	var frame models.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.sendError("Invalid message format")
		return
	}

	ctx := context.Background()

	switch frame.Event {
	case models.EventJoinChat:
		var p models.JoinPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			c.sendError("Invalid message format")
			return
		}
		if err := c.gateway.Join(ctx, c.ID, p); err != nil {
			c.reportError(frame.Event, err)
		}

	case models.EventSendMessage:
		var p models.SendMessagePayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			c.sendError("Invalid message format")
			return
		}
		if err := c.gateway.SendMessage(ctx, c.ID, p); err != nil {
			c.reportError(frame.Event, err)
		}

	case models.EventTyping:
		var p models.TypingPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			c.sendError("Invalid message format")
			return
		}
		if err := c.gateway.Typing(ctx, c.ID, p); err != nil {
			c.reportError(frame.Event, err)
		}

	case models.EventGetOnlineUsers:
		c.gateway.OnlineUsers(c.ID)

	case models.EventGetRecentMessages:
		var p models.GetRecentMessagesPayload
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &p); err != nil {
				c.sendError("Invalid message format")
				return
			}
		}
		if err := c.gateway.RecentMessages(ctx, c.ID, p.Limit); err != nil {
			c.reportError(frame.Event, err)
		}

	default:
		c.sendError("Unknown event")
	}
}

func (c *Client) reportError(event string, err error) {
	logger.L().Debug().Err(err).Str("conn_id", c.ID).Str("event", event).Msg("event rejected")
	c.sendError(chat.UserMessage(err))
}

func (c *Client) sendError(message string) {
	payload, err := json.Marshal(models.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	data, err := json.Marshal(models.Frame{Event: models.EventError, Data: payload})
	if err != nil {
		return
	}

	select {
	case c.send <- data:
	default:
	}
}
