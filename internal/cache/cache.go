package cache

import (
	"context"
	"sync"

	"chat-gateway/internal/models"
)

// DefaultCapacity is the bound on the recent-message buffer.
const DefaultCapacity = 50

// Cache is a bounded newest-first buffer of message records. It is not
// correctness-critical: the message store remains the source of truth and
// callers fall back to it on a miss or error.
type Cache interface {
	// Push inserts a record at the front, evicting the oldest entry once
	// the buffer is over capacity.
	Push(ctx context.Context, msg *models.Message) error
	// Snapshot returns up to limit records, newest-first. limit is clamped
	// to the current size.
	Snapshot(ctx context.Context, limit int) ([]*models.Message, error)
	// Warm replaces the buffer with records fetched from the store,
	// newest-first. Used to rebuild a cold cache after a restart.
	Warm(ctx context.Context, msgs []*models.Message) error
}

// Memory is the process-local cache used when no shared backend is
// available. Push and Snapshot never fail.
type Memory struct {
	mu       sync.Mutex
	capacity int
	entries  []*models.Message
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		capacity: capacity,
		entries:  make([]*models.Message, 0, capacity),
	}
}

func (m *Memory) Push(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append([]*models.Message{msg}, m.entries...)
	if len(m.entries) > m.capacity {
		m.entries = m.entries[:m.capacity]
	}
	return nil
}

func (m *Memory) Snapshot(ctx context.Context, limit int) ([]*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]*models.Message, limit)
	copy(out, m.entries[:limit])
	return out, nil
}

func (m *Memory) Warm(ctx context.Context, msgs []*models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(msgs) > m.capacity {
		msgs = msgs[:m.capacity]
	}
	m.entries = append(m.entries[:0], msgs...)
	return nil
}
