package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chat-gateway/internal/config"
	"chat-gateway/internal/models"

	"github.com/redis/go-redis/v9"
)

const recentMessagesKey = "recent_messages"

// Redis is a shared recent-message cache backed by a Redis list, so every
// gateway instance reads and writes the same buffer. Push and trim run in
// one pipeline, keeping the bound atomic across concurrent writers.
type Redis struct {
	client   *redis.Client
	key      string
	capacity int
}

func NewRedis(cfg config.Redis, capacity int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Redis{
		client:   client,
		key:      cfg.ChannelPrefix + ":" + recentMessagesKey,
		capacity: capacity,
	}, nil
}

func (r *Redis) Push(ctx context.Context, msg *models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, data)
	pipe.LTrim(ctx, r.key, 0, int64(r.capacity-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push to redis: %w", err)
	}

	return nil
}

func (r *Redis) Snapshot(ctx context.Context, limit int) ([]*models.Message, error) {
	if limit > r.capacity {
		limit = r.capacity
	}

	raw, err := r.client.LRange(ctx, r.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}

	messages := make([]*models.Message, 0, len(raw))
	for _, item := range raw {
		msg := &models.Message{}
		if err := json.Unmarshal([]byte(item), msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

func (r *Redis) Warm(ctx context.Context, msgs []*models.Message) error {
	if len(msgs) > r.capacity {
		msgs = msgs[:r.capacity]
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key)
	// msgs arrive newest-first; RPush in order keeps index 0 the newest.
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		pipe.RPush(ctx, r.key, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to warm redis cache: %w", err)
	}

	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
