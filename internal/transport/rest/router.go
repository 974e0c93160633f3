package rest

import (
	"decklobby/internal/service"
	"decklobby/internal/transport/rest/handler"
	"decklobby/internal/transport/rest/middleware"
	"decklobby/internal/transport/ws"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CORSConfig holds the values echoed in CORS response headers
type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// Container holds all dependencies for the router
type Container struct {
	AuthService  *service.AuthService
	LobbyService *service.LobbyService
	DeckService  *service.DeckService
	CardService  *service.CardService
	WSHub        *ws.Hub
	WSSendBuffer int
	CORS         CORSConfig
	Logger       *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(c.LobbyService)
	deckHandler := handler.NewDeckHandler(c.DeckService)
	cardHandler := handler.NewCardHandler(c.CardService)
	wsHandler := ws.NewHandler(c.WSHub, c.LobbyService, c.AuthService, c.WSSendBuffer, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS first so preflight requests never reach the logger or auth
	r.Use(corsMiddleware(c.CORS))
	r.Use(middleware.Logging(c.Logger))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public session routes. /sessions/join and /sessions/code/{code} are
	// registered ahead of /sessions/{sessionId} so they are not shadowed.
	v1.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions", sessionHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/join", sessionHandler.Join).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/code/{code}", sessionHandler.GetByCode).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}", sessionHandler.Get).Methods("GET", "OPTIONS")

	// Deck routes
	v1.HandleFunc("/decks", deckHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/decks", deckHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/decks/{deckId}", deckHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/decks/{deckId}", deckHandler.Update).Methods("PATCH", "OPTIONS")
	v1.HandleFunc("/decks/{deckId}", deckHandler.Delete).Methods("DELETE", "OPTIONS")

	// Card catalog proxy
	v1.HandleFunc("/cards/search", cardHandler.Search).Methods("GET", "OPTIONS")
	v1.HandleFunc("/cards/{cardId}", cardHandler.Get).Methods("GET", "OPTIONS")

	// WebSocket relay (optional token in query param)
	v1.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")

	// Participant routes (require a token for the session and participant in the path)
	participantRoutes := v1.NewRoute().Subrouter()
	participantRoutes.Use(authMW.RequireParticipant)

	participantRoutes.HandleFunc("/sessions/{sessionId}/participants/{participantId}", sessionHandler.UpdateParticipant).Methods("PATCH", "OPTIONS")
	participantRoutes.HandleFunc("/sessions/{sessionId}/participants/{participantId}", sessionHandler.Leave).Methods("DELETE", "OPTIONS")
	participantRoutes.HandleFunc("/sessions/{sessionId}/start", sessionHandler.Start).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(cfg CORSConfig) mux.MiddlewareFunc {
	if cfg.AllowedOrigins == "" {
		cfg.AllowedOrigins = "*"
	}
	if cfg.AllowedMethods == "" {
		cfg.AllowedMethods = "GET, POST, PATCH, DELETE, OPTIONS"
	}
	if cfg.AllowedHeaders == "" {
		cfg.AllowedHeaders = "Content-Type, Authorization"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cfg.AllowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", cfg.AllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", cfg.AllowedHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
