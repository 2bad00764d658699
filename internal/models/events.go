package models

import (
	"encoding/json"
	"time"
)

// Client-to-server event names.
const (
	EventJoinChat          = "joinChat"
	EventSendMessage       = "sendMessage"
	EventTyping            = "typing"
	EventGetOnlineUsers    = "getOnlineUsers"
	EventGetRecentMessages = "getRecentMessages"
)

// Server-to-client event names.
const (
	EventRecentMessages = "recentMessages"
	EventUserJoined     = "userJoined"
	EventUserLeft       = "userLeft"
	EventOnlineUsers    = "onlineUsers"
	EventNewMessage     = "newMessage"
	EventUserTyping     = "userTyping"
	EventError          = "error"
)

// Frame is the wire envelope for every websocket message in both
// directions: {"event": "...", "data": {...}}.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
}

type SendMessagePayload struct {
	Content string `json:"content"`
	UserID  int    `json:"userId"`
}

type TypingPayload struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type GetRecentMessagesPayload struct {
	Limit int `json:"limit"`
}

// UserEventPayload is shared by userJoined and userLeft.
type UserEventPayload struct {
	UserID    int       `json:"userId"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
