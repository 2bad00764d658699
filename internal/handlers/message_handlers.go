package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"chat-gateway/internal/chat"
	"chat-gateway/internal/models"
	"chat-gateway/internal/store"
	"chat-gateway/pkg/logger"
)

type MessageHandlers struct {
	messages store.MessageRepository
}

func NewMessageHandlers(messages store.MessageRepository) *MessageHandlers {
	return &MessageHandlers{messages: messages}
}

// CreateMessage persists a message through the REST surface without any
// room fan-out; live delivery happens only on the websocket path.
func (h *MessageHandlers) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		http.Error(w, "message content cannot be empty", http.StatusBadRequest)
		return
	}
	if utf8.RuneCountInString(content) > chat.MaxMessageLength {
		http.Error(w, "message content cannot exceed 1000 characters", http.StatusBadRequest)
		return
	}

	msg, err := h.messages.CreateMessage(r.Context(), content, req.UserID)
	if err != nil {
		logger.L().Error().Err(err).Msg("create message error")
		http.Error(w, "failed to create message", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}

func (h *MessageHandlers) GetRecentMessages(w http.ResponseWriter, r *http.Request) {
	limit := limitFromQuery(r, 50)

	messages, err := h.messages.RecentMessages(r.Context(), limit)
	if err != nil {
		logger.L().Error().Err(err).Msg("get recent messages error")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

func (h *MessageHandlers) GetMessagesByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := idFromPath(r, 3)
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}
	limit := limitFromQuery(r, 50)

	messages, err := h.messages.MessagesByUser(r.Context(), userID, limit)
	if err != nil {
		logger.L().Error().Err(err).Msg("get messages by user error")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

func (h *MessageHandlers) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r, 2)
	if err != nil {
		http.Error(w, "invalid message ID", http.StatusBadRequest)
		return
	}

	msg, err := h.messages.MessageByID(r.Context(), id)
	if err != nil {
		logger.L().Error().Err(err).Msg("get message error")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if msg == nil {
		http.Error(w, "message not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msg)
}

func (h *MessageHandlers) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r, 2)
	if err != nil {
		http.Error(w, "invalid message ID", http.StatusBadRequest)
		return
	}

	var req models.UpdateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		http.Error(w, "message content cannot be empty", http.StatusBadRequest)
		return
	}
	if utf8.RuneCountInString(content) > chat.MaxMessageLength {
		http.Error(w, "message content cannot exceed 1000 characters", http.StatusBadRequest)
		return
	}

	msg, err := h.messages.UpdateMessage(r.Context(), id, content)
	if err != nil {
		logger.L().Error().Err(err).Msg("update message error")
		http.Error(w, "failed to update message", http.StatusBadRequest)
		return
	}
	if msg == nil {
		http.Error(w, "message not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msg)
}

func (h *MessageHandlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r, 2)
	if err != nil {
		http.Error(w, "invalid message ID", http.StatusBadRequest)
		return
	}

	if err := h.messages.DeleteMessage(r.Context(), id); err != nil {
		logger.L().Error().Err(err).Msg("delete message error")
		http.Error(w, "message not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("message deleted successfully"))
}

func limitFromQuery(r *http.Request, defaultLimit int) int {
	value := r.URL.Query().Get("limit")
	if value == "" {
		return defaultLimit
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	return limit
}
