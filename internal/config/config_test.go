package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "DATABASE_URL",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_CHANNEL_PREFIX",
		"CHAT_HISTORY_ON_CONNECT", "CHAT_CACHE_CAPACITY",
		"LOG_LEVEL", "LOG_PRETTY",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Server.Port != ":8080" {
		t.Errorf("expected default port :8080, got %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("expected 15s read timeout, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("expected default redis addr, got %q", cfg.Redis.Addr)
	}
	if cfg.Redis.ChannelPrefix != "chat" {
		t.Errorf("expected default channel prefix, got %q", cfg.Redis.ChannelPrefix)
	}
	if cfg.Chat.HistoryOnConnect != 20 {
		t.Errorf("expected 20 history messages on connect, got %d", cfg.Chat.HistoryOnConnect)
	}
	if cfg.Chat.CacheCapacity != 50 {
		t.Errorf("expected cache capacity 50, got %d", cfg.Chat.CacheCapacity)
	}
	if cfg.Log.Level != "info" || cfg.Log.Pretty {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("READ_TIMEOUT", "30s")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_CHANNEL_PREFIX", "staging-chat")
	t.Setenv("CHAT_HISTORY_ON_CONNECT", "5")
	t.Setenv("LOG_PRETTY", "true")

	cfg := Load()

	if cfg.Server.Port != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected 30s, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Redis.Addr != "redis.internal:6380" || cfg.Redis.DB != 3 {
		t.Errorf("unexpected redis config %+v", cfg.Redis)
	}
	if cfg.Redis.ChannelPrefix != "staging-chat" {
		t.Errorf("expected staging-chat prefix, got %q", cfg.Redis.ChannelPrefix)
	}
	if cfg.Chat.HistoryOnConnect != 5 {
		t.Errorf("expected 5, got %d", cfg.Chat.HistoryOnConnect)
	}
	if !cfg.Log.Pretty {
		t.Error("expected pretty logging enabled")
	}
}
