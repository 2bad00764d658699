package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"chat-gateway/internal/models"
	"chat-gateway/internal/store"
)

// Session ties a live connection to the identity it joined with. Sessions
// are owned by the instance that accepted the connection and are never
// shared across processes.
type Session struct {
	ConnID   string
	UserID   int
	Username string
	JoinedAt time.Time
}

// Registry is the per-process map of live sessions. All methods are safe
// for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	users    store.UserDirectory
	sessions map[string]Session
}

func NewRegistry(users store.UserDirectory) *Registry {
	return &Registry{
		users:    users,
		sessions: make(map[string]Session),
	}
}

// Register verifies the user against the directory and stores the session.
// Re-registering the same connection overwrites the prior session. The
// identity is verified once here, not per message.
func (r *Registry) Register(ctx context.Context, connID string, userID int, username string) error {
	user, err := r.users.FindUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to verify user %d: %w", userID, err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	r.mu.Lock()
	r.sessions[connID] = Session{
		ConnID:   connID,
		UserID:   userID,
		Username: username,
		JoinedAt: time.Now(),
	}
	r.mu.Unlock()

	return nil
}

// Unregister removes and returns the prior session. ok is false when the
// connection never joined.
func (r *Registry) Unregister(connID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if ok {
		delete(r.sessions, connID)
	}
	return s, ok
}

// Get returns the session for a connection, if any.
func (r *Registry) Get(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connID]
	return s, ok
}

// Online returns a point-in-time presence snapshot, deduplicated by user
// id. When a user holds several connections the earliest-joined
// connection's username wins.
func (r *Registry) Online() []models.OnlineUser {
	r.mu.RLock()
	sessions := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].JoinedAt.Equal(sessions[j].JoinedAt) {
			return sessions[i].ConnID < sessions[j].ConnID
		}
		return sessions[i].JoinedAt.Before(sessions[j].JoinedAt)
	})

	seen := make(map[int]bool, len(sessions))
	users := make([]models.OnlineUser, 0, len(sessions))
	for _, s := range sessions {
		if seen[s.UserID] {
			continue
		}
		seen[s.UserID] = true
		users = append(users, models.OnlineUser{UserID: s.UserID, Username: s.Username})
	}

	return users
}
