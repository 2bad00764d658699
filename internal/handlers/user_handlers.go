package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"chat-gateway/internal/models"
	"chat-gateway/internal/store"
	"chat-gateway/pkg/logger"
)

type UserHandlers struct {
	users store.UserRepository
}

func NewUserHandlers(users store.UserRepository) *UserHandlers {
	return &UserHandlers{users: users}
}

func (h *UserHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if n := utf8.RuneCountInString(req.Username); n < 2 || n > 30 {
		http.Error(w, "username must be between 2 and 30 characters", http.StatusBadRequest)
		return
	}

	user, err := h.users.CreateUser(r.Context(), &req)
	if err != nil {
		logger.L().Error().Err(err).Msg("create user error")
		http.Error(w, "failed to create user", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		logger.L().Error().Err(err).Msg("list users error")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

func (h *UserHandlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r, 2)
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	user, err := h.users.FindUserByID(r.Context(), id)
	if err != nil {
		logger.L().Error().Err(err).Msg("get user error")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandlers) GetUserByUsername(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 4 || parts[3] == "" {
		http.Error(w, "invalid username", http.StatusBadRequest)
		return
	}

	user, err := h.users.FindUserByUsername(r.Context(), parts[3])
	if err != nil {
		logger.L().Error().Err(err).Msg("get user by username error")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r, 2)
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		if n := utf8.RuneCountInString(trimmed); n < 2 || n > 30 {
			http.Error(w, "username must be between 2 and 30 characters", http.StatusBadRequest)
			return
		}
		req.Username = &trimmed
	}

	user, err := h.users.UpdateUser(r.Context(), id, &req)
	if err != nil {
		logger.L().Error().Err(err).Msg("update user error")
		http.Error(w, "failed to update user", http.StatusBadRequest)
		return
	}
	if user == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r, 2)
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		logger.L().Error().Err(err).Msg("delete user error")
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("user deleted successfully"))
}

func idFromPath(r *http.Request, index int) (int, error) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) <= index {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(parts[index])
}
