package main

import (
	"context"
	"decklobby/internal/config"
	"decklobby/internal/model"
	"decklobby/internal/repository"
	"decklobby/internal/service"
	_ "embed"
	"encoding/json"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

//go:embed decks.json
var starterDecks []byte

// Seeds starter decks into the configured deck store. A path argument
// replaces the embedded starter set.
func main() {
	cfg := config.Load()

	data := starterDecks
	if len(os.Args) > 1 {
		b, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to read %s: %v", os.Args[1], err)
		}
		data = b
	}

	var decks []model.Deck
	if err := json.Unmarshal(data, &decks); err != nil {
		log.Fatalf("Failed to parse decks: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var repo repository.DeckRepo
	switch cfg.DeckStore {
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer client.Disconnect(ctx)
		repo = repository.NewMongoDeckRepo(client.Database(cfg.MongoDatabase))

	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		repo, err = repository.NewPostgresDeckRepo(db)
		if err != nil {
			log.Fatalf("Failed to migrate decks table: %v", err)
		}

	default:
		log.Fatalf("DECK_STORE must be mongo or postgres to seed, got %q", cfg.DeckStore)
	}

	deckSvc := service.NewDeckService(repo)
	for i := range decks {
		created, err := deckSvc.CreateDeck(ctx, &decks[i])
		if err != nil {
			log.Fatalf("Failed to create deck %q: %v", decks[i].Name, err)
		}
		log.Printf("Created deck %q (%s) with %d entries", created.Name, created.ID, len(created.Cards))
	}

	log.Printf("Seeded %d decks into %s", len(decks), cfg.DeckStore)
}
