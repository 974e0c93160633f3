package main

import (
	"context"
	"decklobby/internal/cache"
	"decklobby/internal/config"
	"decklobby/internal/logging"
	"decklobby/internal/repository"
	"decklobby/internal/service"
	"decklobby/internal/transport/rest"
	"decklobby/internal/transport/ws"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Deck storage
	deckRepo, closeDecks, err := openDeckRepo(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open deck store", zap.String("store", cfg.DeckStore), zap.Error(err))
	}
	defer closeDecks()

	// Redis card cache and session mirror (optional)
	var (
		cardCache    cache.CardCache
		sessionCache cache.SessionCache
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, card cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			cardCache = cache.NewCardCache(rdb, cfg.CardCacheTTL)
			sessionCache = cache.NewSessionCache(rdb, cfg.SessionIdleTTL, time.Minute)
			logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		}
	}

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL)
	sessionRepo := repository.NewSessionRepo()
	lobbySvc := service.NewLobbyService(sessionRepo, deckRepo, authSvc, logger)
	lobbySvc.SetDefaultCapacity(cfg.DefaultCapacity)
	deckSvc := service.NewDeckService(deckRepo)
	cardSvc := service.NewCardService(service.NewScryfallClient(cfg.CardAPIBaseURL, logger), cardCache, logger)

	// Initialize WebSocket hub (implements service.Broadcaster)
	wsHub := ws.NewHub(ws.NewRegistry(), logger)
	if sessionCache != nil {
		lobbySvc.SetBroadcaster(service.Broadcasters{wsHub, service.NewSnapshotMirror(sessionCache, logger)})
	} else {
		lobbySvc.SetBroadcaster(wsHub)
	}

	reaper := service.NewReaper(lobbySvc, cfg.ReapSchedule, cfg.SessionIdleTTL, logger)
	if err := reaper.Start(); err != nil {
		logger.Fatal("failed to schedule idle session reaper", zap.Error(err))
	}
	defer reaper.Stop()

	router := rest.NewRouter(&rest.Container{
		AuthService:  authSvc,
		LobbyService: lobbySvc,
		DeckService:  deckSvc,
		CardService:  cardSvc,
		WSHub:        wsHub,
		WSSendBuffer: cfg.WSSendBuffer,
		CORS: rest.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: cfg.CORSAllowedMethods,
			AllowedHeaders: cfg.CORSAllowedHeaders,
		},
		Logger: logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("deck_store", cfg.DeckStore),
			zap.Bool("card_cache", cardCache != nil))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// openDeckRepo connects the deck backend named by cfg.DeckStore. The returned
// func releases the underlying connection.
func openDeckRepo(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.DeckRepo, func(), error) {
	switch cfg.DeckStore {
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}
		logger.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))
		return repository.NewMongoDeckRepo(client.Database(cfg.MongoDatabase)), func() {
			client.Disconnect(context.Background())
		}, nil

	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo, err := repository.NewPostgresDeckRepo(db)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to postgres")
		return repo, func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}, nil

	case "memory", "":
		logger.Info("using in-memory deck store")
		return repository.NewMemoryDeckRepo(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown deck store %q", cfg.DeckStore)
	}
}
