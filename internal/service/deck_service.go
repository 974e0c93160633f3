package service

import (
	"context"
	"decklobby/internal/model"
	"decklobby/internal/repository"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DeckService handles saved deck CRUD
type DeckService struct {
	deckRepo repository.DeckRepo
}

// NewDeckService creates a new deck service
func NewDeckService(deckRepo repository.DeckRepo) *DeckService {
	return &DeckService{deckRepo: deckRepo}
}

func validateCards(cards []model.DeckCard) error {
	for i, c := range cards {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: card %d has no id", ErrInvalidArgument, i)
		}
		if c.Quantity <= 0 {
			return fmt.Errorf("%w: card %s must have a positive quantity", ErrInvalidArgument, c.ID)
		}
	}
	return nil
}

// CreateDeck stores a new deck
func (s *DeckService) CreateDeck(ctx context.Context, deck *model.Deck) (*model.Deck, error) {
	deck.Name = strings.TrimSpace(deck.Name)
	if deck.Name == "" {
		return nil, fmt.Errorf("%w: deck name is required", ErrInvalidArgument)
	}
	if err := validateCards(deck.Cards); err != nil {
		return nil, err
	}
	if deck.Cards == nil {
		deck.Cards = []model.DeckCard{}
	}
	if deck.SleeveColor == "" {
		deck.SleeveColor = model.DefaultSleeveColor
	}
	deck.ID = uuid.NewString()

	if err := s.deckRepo.Create(ctx, deck); err != nil {
		return nil, fmt.Errorf("failed to create deck: %w", err)
	}
	return deck, nil
}

// GetDeck retrieves a deck by id
func (s *DeckService) GetDeck(ctx context.Context, id string) (*model.Deck, error) {
	deck, err := s.deckRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, fmt.Errorf("%w: deck %s", ErrNotFound, id)
	}
	return deck, nil
}

// ListDecks returns all saved decks
func (s *DeckService) ListDecks(ctx context.Context) ([]*model.Deck, error) {
	return s.deckRepo.List(ctx)
}

// UpdateDeck applies a partial update
func (s *DeckService) UpdateDeck(ctx context.Context, id string, update *model.DeckUpdate) (*model.Deck, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: deck name must not be empty", ErrInvalidArgument)
		}
		update.Name = &name
	}
	if update.Cards != nil {
		if err := validateCards(*update.Cards); err != nil {
			return nil, err
		}
	}

	deck, err := s.deckRepo.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update deck: %w", err)
	}
	if deck == nil {
		return nil, fmt.Errorf("%w: deck %s", ErrNotFound, id)
	}
	return deck, nil
}

// DeleteDeck removes a deck
func (s *DeckService) DeleteDeck(ctx context.Context, id string) error {
	deleted, err := s.deckRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete deck: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: deck %s", ErrNotFound, id)
	}
	return nil
}
