package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DECK_STORE", "")
	t.Setenv("SESSION_IDLE_TTL", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("CARD_CACHE_TTL", "")
	t.Setenv("REAP_SCHEDULE", "")
	t.Setenv("WS_SEND_BUFFER", "")
	t.Setenv("DEFAULT_CAPACITY", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.DeckStore)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTTL)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.CardCacheTTL)
	assert.Equal(t, "@every 1m", cfg.ReapSchedule)
	assert.Equal(t, 32, cfg.WSSendBuffer)
	assert.Equal(t, 4, cfg.DefaultCapacity)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DECK_STORE", "Postgres")
	t.Setenv("SESSION_IDLE_TTL", "15m")
	t.Setenv("DEFAULT_CAPACITY", "6")
	t.Setenv("REDIS_ADDR", "redis://cache:6379")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.DeckStore)
	assert.Equal(t, 15*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, 6, cfg.DefaultCapacity)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
}

func TestMalformedNumbersFallBack(t *testing.T) {
	t.Setenv("DEFAULT_CAPACITY", "lots")
	t.Setenv("TOKEN_TTL", "soon")

	cfg := Load()
	assert.Equal(t, 4, cfg.DefaultCapacity)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}
