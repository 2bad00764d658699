package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"chat-gateway/internal/cache"
	"chat-gateway/internal/models"
	"chat-gateway/internal/relay"
	"chat-gateway/internal/store"
	"chat-gateway/pkg/logger"
)

// RoomName is the single implicit room every client joins.
const RoomName = "main-chat"

// DefaultHistoryLimit is the recentMessages reply size when the client
// does not ask for a specific count.
const DefaultHistoryLimit = 50

// Sender delivers encoded frames to clients connected to this instance.
// Implementations must not block the caller.
type Sender interface {
	// Broadcast delivers to every connected client except excludeConnID
	// (empty string excludes nobody).
	Broadcast(data []byte, excludeConnID string)
	// Send delivers point-to-point to one connection.
	Send(connID string, data []byte)
}

// Gateway coordinates presence and message fan-out for the single logical
// room. Local clients are served directly through the Sender; the relay
// carries the same frames to clients attached to other instances.
type Gateway struct {
	registry *Registry
	store    store.MessageStore
	cache    cache.Cache
	relay    relay.Relay
	sender   Sender

	historyOnConnect int
}

func NewGateway(registry *Registry, msgs store.MessageStore, c cache.Cache, r relay.Relay, sender Sender, historyOnConnect int) *Gateway {
	if historyOnConnect <= 0 {
		historyOnConnect = 20
	}

	g := &Gateway{
		registry:         registry,
		store:            msgs,
		cache:            c,
		relay:            r,
		sender:           sender,
		historyOnConnect: historyOnConnect,
	}

	r.Subscribe(relay.TopicChatEvents, g.handleRelayed)
	return g
}

// Connect runs when a socket is accepted, before any join: the new client
// receives recent history so it can render immediately.
func (g *Gateway) Connect(ctx context.Context, connID string) {
	msgs, err := g.recentOldestFirst(ctx, g.historyOnConnect)
	if err != nil {
		logger.L().Error().Err(err).Str("conn_id", connID).Msg("failed to fetch recent messages on connect")
		return
	}
	g.sendTo(connID, models.EventRecentMessages, msgs)
}

// Join verifies the user, registers the session, and announces the join
// and the refreshed presence set to the whole room. Re-joins from the same
// connection overwrite the session and still broadcast.
func (g *Gateway) Join(ctx context.Context, connID string, p models.JoinPayload) error {
	if err := g.registry.Register(ctx, connID, p.UserID, p.Username); err != nil {
		return err
	}

	g.broadcast(models.EventUserJoined, models.UserEventPayload{
		UserID:    p.UserID,
		Username:  p.Username,
		Timestamp: time.Now(),
	}, "")
	g.broadcastPresence()

	logger.L().Info().Int("user_id", p.UserID).Str("username", p.Username).Str("conn_id", connID).Msg("user joined chat")
	return nil
}

// Disconnect unregisters the connection. A connection that never joined
// produces no events.
func (g *Gateway) Disconnect(ctx context.Context, connID string) {
	session, ok := g.registry.Unregister(connID)
	if !ok {
		return
	}

	g.broadcast(models.EventUserLeft, models.UserEventPayload{
		UserID:    session.UserID,
		Username:  session.Username,
		Timestamp: time.Now(),
	}, "")
	g.broadcastPresence()

	logger.L().Info().Int("user_id", session.UserID).Str("username", session.Username).Msg("user left chat")
}

// SendMessage validates, persists, caches, and fans out one chat message.
// Any failed step is terminal: nothing is broadcast unless the record was
// persisted, and the error goes back to the sender only.
func (g *Gateway) SendMessage(ctx context.Context, connID string, p models.SendMessagePayload) error {
	session, ok := g.registry.Get(connID)
	if !ok || session.UserID != p.UserID {
		return ErrNotJoined
	}

	content := strings.TrimSpace(p.Content)
	if content == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return ErrMessageTooLong
	}

	msg, err := g.store.CreateMessage(ctx, content, p.UserID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	if err := g.cache.Push(ctx, msg); err != nil {
		logger.L().Warn().Err(err).Msg("failed to cache message")
	}

	// Includes the sender, so one client rendering path covers local echo
	// and remote messages alike.
	g.broadcast(models.EventNewMessage, msg, "")

	logger.L().Debug().Int("message_id", msg.ID).Int("user_id", msg.UserID).Msg("message sent")
	return nil
}

// Typing relays an ephemeral typing indicator to everyone but the sender.
// No persistence, no retries: a dropped event at worst leaves a stale
// indicator for a moment.
func (g *Gateway) Typing(ctx context.Context, connID string, p models.TypingPayload) error {
	if _, ok := g.registry.Get(connID); !ok {
		return ErrNotJoined
	}

	g.broadcast(models.EventUserTyping, p, connID)
	return nil
}

// OnlineUsers replies to the requesting connection with the current
// presence snapshot, without a room-wide broadcast.
func (g *Gateway) OnlineUsers(connID string) {
	g.sendTo(connID, models.EventOnlineUsers, g.registry.Online())
}

// RecentMessages replies to the requesting connection with up to limit
// records, oldest-first.
func (g *Gateway) RecentMessages(ctx context.Context, connID string, limit int) error {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}

	msgs, err := g.recentOldestFirst(ctx, limit)
	if err != nil {
		return err
	}
	g.sendTo(connID, models.EventRecentMessages, msgs)
	return nil
}

// recentOldestFirst reads the cache and falls back to the store when the
// cache is cold or unavailable, warming it from the store result. The
// cache holds newest-first; replies are reversed into reading order.
func (g *Gateway) recentOldestFirst(ctx context.Context, limit int) ([]*models.Message, error) {
	msgs, err := g.cache.Snapshot(ctx, limit)
	if err != nil {
		logger.L().Warn().Err(err).Msg("recent-message cache unavailable, falling back to store")
		msgs = nil
	}

	if len(msgs) == 0 {
		fetch := limit
		if fetch < cache.DefaultCapacity {
			fetch = cache.DefaultCapacity
		}
		all, err := g.store.RecentMessages(ctx, fetch)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
		}
		if len(all) > 0 {
			if err := g.cache.Warm(ctx, all); err != nil {
				logger.L().Warn().Err(err).Msg("failed to warm recent-message cache")
			}
		}
		if len(all) > limit {
			all = all[:limit]
		}
		msgs = all
	}

	out := make([]*models.Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out, nil
}

func (g *Gateway) broadcastPresence() {
	g.broadcast(models.EventOnlineUsers, g.registry.Online(), "")
}

// broadcast delivers a frame to every local client (minus the exclusion)
// and publishes it for other instances. The exclusion only applies
// locally: the excluded connection is never attached elsewhere.
func (g *Gateway) broadcast(event string, payload any, excludeConnID string) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		logger.L().Error().Err(err).Str("event", event).Msg("failed to encode frame")
		return
	}

	g.sender.Broadcast(data, excludeConnID)
	g.relay.Publish(relay.TopicChatEvents, json.RawMessage(data))
}

// handleRelayed delivers frames published by other instances to the
// clients attached here.
func (g *Gateway) handleRelayed(env relay.Envelope) {
	var frame models.Frame
	if err := json.Unmarshal(env.Payload, &frame); err != nil || frame.Event == "" {
		logger.L().Warn().Str("origin", env.Origin).Msg("relay: dropping malformed frame")
		return
	}
	g.sender.Broadcast(env.Payload, "")
}

func (g *Gateway) sendTo(connID, event string, payload any) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		logger.L().Error().Err(err).Str("event", event).Msg("failed to encode frame")
		return
	}
	g.sender.Send(connID, data)
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(models.Frame{Event: event, Data: data})
}
