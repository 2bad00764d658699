package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"chat-gateway/internal/cache"
	"chat-gateway/internal/chat"
	"chat-gateway/internal/config"
	"chat-gateway/internal/handlers"
	"chat-gateway/internal/relay"
	"chat-gateway/internal/store"
	"chat-gateway/internal/websocket"
	"chat-gateway/pkg/logger"

	"github.com/google/uuid"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	// Initialize persistence
	db, err := store.NewPostgresStore(cfg.Database.URL)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Recent-message cache: shared Redis list when reachable, otherwise a
	// process-local buffer.
	var recent cache.Cache
	redisCache, err := cache.NewRedis(cfg.Redis, cfg.Chat.CacheCapacity)
	if err != nil {
		logger.L().Warn().Err(err).Msg("redis cache unavailable, using in-memory recent-message cache")
		recent = cache.NewMemory(cfg.Chat.CacheCapacity)
	} else {
		recent = redisCache
		defer redisCache.Close()
	}

	// Cross-instance relay. Degrades to local-only delivery when the bus
	// is down; never fatal.
	instanceID := uuid.New().String()
	bus := relay.NewRedis(cfg.Redis, instanceID)
	defer bus.Close()

	// Core chat components
	hub := websocket.NewHub()
	go hub.Run()

	registry := chat.NewRegistry(db)
	gateway := chat.NewGateway(registry, db, recent, bus, hub, cfg.Chat.HistoryOnConnect)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	bus.Start(ctx)

	// Initialize handlers
	userHandlers := handlers.NewUserHandlers(db)
	messageHandlers := handlers.NewMessageHandlers(db)
	wsHandlers := handlers.NewWebSocketHandlers(hub, gateway, bus)

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, userHandlers, messageHandlers, wsHandlers)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.L().Info().Str("addr", cfg.Server.Port).Str("instance_id", instanceID).Msg("server started")

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L().Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.L().Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server shutdown error")
	}
	hub.Shutdown()
}

func setupRoutes(mux *http.ServeMux, userHandlers *handlers.UserHandlers, messageHandlers *handlers.MessageHandlers, wsHandlers *handlers.WebSocketHandlers) {
	// User routes
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			userHandlers.ListUsers(w, r)
		case http.MethodPost:
			userHandlers.CreateUser(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 3 || parts[2] == "" {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		// /users/username/{username}
		if parts[2] == "username" && r.Method == http.MethodGet {
			userHandlers.GetUserByUsername(w, r)
			return
		}

		// /users/{id}
		switch r.Method {
		case http.MethodGet:
			userHandlers.GetUser(w, r)
		case http.MethodPut:
			userHandlers.UpdateUser(w, r)
		case http.MethodDelete:
			userHandlers.DeleteUser(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Message routes
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		messageHandlers.CreateMessage(w, r)
	})

	mux.HandleFunc("/messages/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 3 || parts[2] == "" {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		// /messages/recent
		if parts[2] == "recent" && r.Method == http.MethodGet {
			messageHandlers.GetRecentMessages(w, r)
			return
		}

		// /messages/user/{userId}
		if parts[2] == "user" && r.Method == http.MethodGet {
			messageHandlers.GetMessagesByUser(w, r)
			return
		}

		// /messages/{id}
		switch r.Method {
		case http.MethodGet:
			messageHandlers.GetMessage(w, r)
		case http.MethodPut:
			messageHandlers.UpdateMessage(w, r)
		case http.MethodDelete:
			messageHandlers.DeleteMessage(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// WebSocket route
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
