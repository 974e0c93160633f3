package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, read from the environment
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	JWTSecret string
	TokenTTL  time.Duration

	// DeckStore selects the deck backend: memory, mongo or postgres
	DeckStore     string
	MongoURI      string
	MongoDatabase string
	PostgresDSN   string

	// RedisAddr enables the card cache when set
	RedisAddr      string
	CardAPIBaseURL string
	CardCacheTTL   time.Duration

	SessionIdleTTL  time.Duration
	ReapSchedule    string
	DefaultCapacity int
	WSSendBuffer    int

	CORSAllowedOrigins string
	CORSAllowedMethods string
	CORSAllowedHeaders string
}

// Load reads a .env file if one exists, then the process environment.
// Values already present in the environment win over the file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		DeckStore:     strings.ToLower(getEnv("DECK_STORE", "memory")),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "decklobby"),
		PostgresDSN:   getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=decklobby port=5432 sslmode=disable"),

		RedisAddr:      strings.TrimPrefix(getEnv("REDIS_ADDR", ""), "redis://"),
		CardAPIBaseURL: getEnv("CARD_API_BASE_URL", "https://api.scryfall.com"),
		CardCacheTTL:   getEnvDuration("CARD_CACHE_TTL", 10*time.Minute),

		SessionIdleTTL:  getEnvDuration("SESSION_IDLE_TTL", 2*time.Hour),
		ReapSchedule:    getEnv("REAP_SCHEDULE", "@every 1m"),
		DefaultCapacity: getEnvInt("DEFAULT_CAPACITY", 4),
		WSSendBuffer:    getEnvInt("WS_SEND_BUFFER", 32),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET, POST, PATCH, DELETE, OPTIONS"),
		CORSAllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type, Authorization"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
