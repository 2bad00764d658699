package models

import "time"

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	IsOnline  bool      `json:"isOnline"`
	LastSeen  time.Time `json:"lastSeen"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is a chat message record. Username is denormalized from the
// users table so clients never need a second lookup to render it.
type Message struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	UserID    int       `json:"userId"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// OnlineUser is one entry of the presence projection, deduplicated by
// user id across connections.
type OnlineUser struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Avatar   *string `json:"avatar"`
}

type CreateMessageRequest struct {
	Content string `json:"content"`
	UserID  int    `json:"userId"`
}

type UpdateMessageRequest struct {
	Content string `json:"content"`
}
