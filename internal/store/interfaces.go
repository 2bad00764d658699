package store

import (
	"context"

	"chat-gateway/internal/models"
)

// MessageStore is the narrow persistence surface the chat core depends on.
// CreateMessage is the single source of truth for assigned ids and
// timestamps; RecentMessages returns newest-first.
type MessageStore interface {
	CreateMessage(ctx context.Context, content string, userID int) (*models.Message, error)
	RecentMessages(ctx context.Context, limit int) ([]*models.Message, error)
}

// UserDirectory resolves user identities. FindUserByID returns (nil, nil)
// when no such user exists.
type UserDirectory interface {
	FindUserByID(ctx context.Context, id int) (*models.User, error)
}

// MessageRepository extends MessageStore with the CRUD surface used by the
// REST handlers. Updates and deletes are store-level only and never
// re-broadcast.
type MessageRepository interface {
	MessageStore
	MessageByID(ctx context.Context, id int) (*models.Message, error)
	MessagesByUser(ctx context.Context, userID, limit int) ([]*models.Message, error)
	UpdateMessage(ctx context.Context, id int, content string) (*models.Message, error)
	DeleteMessage(ctx context.Context, id int) error
}

type UserRepository interface {
	UserDirectory
	CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
}

type Store interface {
	MessageRepository
	UserRepository
	Close() error
}
