package repository

import (
	"context"
	"decklobby/internal/model"
	"sort"
	"sync"
)

type memoryDeckRepo struct {
	mu    sync.RWMutex
	decks map[string]*model.Deck
}

// NewMemoryDeckRepo creates a process-local deck repository
func NewMemoryDeckRepo() DeckRepo {
	return &memoryDeckRepo{decks: make(map[string]*model.Deck)}
}

func copyDeck(d *model.Deck) *model.Deck {
	c := *d
	c.Cards = append([]model.DeckCard(nil), d.Cards...)
	return &c
}

func (r *memoryDeckRepo) Create(ctx context.Context, deck *model.Deck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decks[deck.ID] = copyDeck(deck)
	return nil
}

func (r *memoryDeckRepo) GetByID(ctx context.Context, id string) (*model.Deck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decks[id]
	if !ok {
		return nil, nil
	}
	return copyDeck(d), nil
}

func (r *memoryDeckRepo) List(ctx context.Context) ([]*model.Deck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Deck, 0, len(r.decks))
	for _, d := range r.decks {
		out = append(out, copyDeck(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryDeckRepo) Update(ctx context.Context, id string, update *model.DeckUpdate) (*model.Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.decks[id]
	if !ok {
		return nil, nil
	}
	if update.Name != nil {
		d.Name = *update.Name
	}
	if update.Cards != nil {
		d.Cards = append([]model.DeckCard(nil), (*update.Cards)...)
	}
	if update.SleeveColor != nil {
		d.SleeveColor = *update.SleeveColor
	}
	return copyDeck(d), nil
}

func (r *memoryDeckRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.decks[id]; !ok {
		return false, nil
	}
	delete(r.decks, id)
	return true, nil
}
