package relay

import "encoding/json"

// Topic names, namespaced by the configured channel prefix on the bus.
const (
	// TopicChatEvents carries every room-wide chat frame between instances.
	TopicChatEvents = "events"
	// TopicRoomJoined and TopicRoomLeft carry transport-level membership
	// telemetry. Losing them is non-fatal.
	TopicRoomJoined = "room-joined"
	TopicRoomLeft   = "room-left"
)

// Envelope is the serialized unit published on the bus. Origin identifies
// the publishing instance so subscribers can skip their own traffic.
type Envelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

// Handler is invoked once per received envelope.
type Handler func(Envelope)

// Relay propagates room-scoped events across gateway instances. Publish is
// fire-and-forget: it never blocks and never fails the caller, even when
// the bus is unreachable — cross-instance fan-out silently degrades while
// local delivery continues.
type Relay interface {
	Publish(topic string, payload any)
	// Subscribe registers a handler for a topic. Must be called before the
	// relay is started.
	Subscribe(topic string, h Handler)
	// Reachable reports whether the bus is currently usable.
	Reachable() bool
	Close() error
}

// MembershipEvent is the payload of the room-joined / room-left telemetry
// topics.
type MembershipEvent struct {
	ConnID string `json:"connId"`
	Room   string `json:"room"`
}

// Local is the single-instance relay: every client is attached to this
// process, so there is nothing to propagate.
type Local struct{}

func NewLocal() *Local { return &Local{} }

func (*Local) Publish(topic string, payload any) {}

func (*Local) Subscribe(topic string, h Handler) {}

func (*Local) Reachable() bool { return false }

func (*Local) Close() error { return nil }
