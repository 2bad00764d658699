package relay

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"chat-gateway/internal/config"
	"chat-gateway/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	publishQueueSize   = 256
	resubscribeBackoff = 2 * time.Second
)

type outbound struct {
	channel string
	data    []byte
}

// Redis relays events between gateway instances over Redis Pub/Sub. A
// single publisher goroutine drains a buffered queue, so sequential
// publishes from this instance arrive in order at every subscriber. The
// subscriber loops reconnect with backoff; while the bus is down the relay
// degrades to local-only delivery without surfacing errors to callers.
type Redis struct {
	client     *redis.Client
	prefix     string
	instanceID string
	// echo controls whether envelopes published by this instance are also
	// handed to its own subscribers. Off by default: local clients are
	// served directly, bypassing the bus.
	echo bool

	reachable atomic.Bool
	pubCh     chan outbound

	mu       sync.Mutex
	handlers map[string][]Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedis builds the Redis relay. It never fails: if the bus is
// unreachable the relay starts degraded and the subscriber loops keep
// retrying in the background.
func NewRedis(cfg config.Redis, instanceID string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	r := &Redis{
		client:     client,
		prefix:     cfg.ChannelPrefix,
		instanceID: instanceID,
		pubCh:      make(chan outbound, publishQueueSize),
		handlers:   make(map[string][]Handler),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.L().Warn().Err(err).Msg("relay bus unreachable, continuing with local-only delivery")
	} else {
		r.reachable.Store(true)
	}

	return r
}

func (r *Redis) channelFor(topic string) string {
	return r.prefix + ":" + topic
}

func (r *Redis) Subscribe(topic string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[topic] = append(r.handlers[topic], h)
}

// Start launches the publisher and one subscriber loop per subscribed
// topic. Call after all Subscribe registrations.
func (r *Redis) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.publishLoop(ctx)

	r.mu.Lock()
	topics := make([]string, 0, len(r.handlers))
	for topic := range r.handlers {
		topics = append(topics, topic)
	}
	r.mu.Unlock()

	for _, topic := range topics {
		r.wg.Add(1)
		go r.subscribeLoop(ctx, topic)
	}
}

func (r *Redis) Publish(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.L().Error().Err(err).Str("topic", topic).Msg("relay: failed to marshal payload")
		return
	}

	env, err := json.Marshal(Envelope{Origin: r.instanceID, Payload: data})
	if err != nil {
		logger.L().Error().Err(err).Str("topic", topic).Msg("relay: failed to marshal envelope")
		return
	}

	if !r.reachable.Load() {
		return
	}

	select {
	case r.pubCh <- outbound{channel: r.channelFor(topic), data: env}:
	default:
		logger.L().Warn().Str("topic", topic).Msg("relay: publish queue full, dropping event")
	}
}

func (r *Redis) Reachable() bool {
	return r.reachable.Load()
}

func (r *Redis) publishLoop(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.pubCh:
			if err := r.client.Publish(ctx, msg.channel, msg.data).Err(); err != nil {
				if ctx.Err() != nil {
					return
				}
				r.reachable.Store(false)
				logger.L().Warn().Err(err).Str("channel", msg.channel).Msg("relay: publish failed, degrading to local-only delivery")
			}
		}
	}
}

func (r *Redis) subscribeLoop(ctx context.Context, topic string) {
	defer r.wg.Done()

	for {
		if err := r.runSubscription(ctx, topic); err != nil && ctx.Err() == nil {
			r.reachable.Store(false)
			logger.L().Warn().Err(err).Str("topic", topic).Msgf("relay: subscription error, reconnecting in %s", resubscribeBackoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeBackoff):
		}
	}
}

func (r *Redis) runSubscription(ctx context.Context, topic string) error {
	pubsub := r.client.Subscribe(ctx, r.channelFor(topic))
	defer pubsub.Close()

	// Wait for the subscription to be active.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	r.reachable.Store(true)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.dispatch(topic, msg.Payload)
		}
	}
}

func (r *Redis) dispatch(topic, payload string) {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		logger.L().Warn().Err(err).Str("topic", topic).Msg("relay: invalid envelope")
		return
	}
	if !r.echo && env.Origin == r.instanceID {
		return
	}

	r.mu.Lock()
	handlers := r.handlers[topic]
	r.mu.Unlock()

	for _, h := range handlers {
		h(env)
	}
}

func (r *Redis) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	return r.client.Close()
}
