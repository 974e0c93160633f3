package repository

import (
	"context"
	"decklobby/internal/model"
	"errors"

	"gorm.io/gorm"
)

// deckRow is the decks table. Cards are stored as a JSON column.
type deckRow struct {
	ID          string           `gorm:"primaryKey;type:varchar(64)"`
	Name        string           `gorm:"not null"`
	Cards       []model.DeckCard `gorm:"serializer:json;type:jsonb;not null"`
	SleeveColor string           `gorm:"default:bg-red-600"`
}

func (deckRow) TableName() string { return "decks" }

func (row *deckRow) toModel() *model.Deck {
	return &model.Deck{
		ID:          row.ID,
		Name:        row.Name,
		Cards:       row.Cards,
		SleeveColor: row.SleeveColor,
	}
}

type postgresDeckRepo struct {
	db *gorm.DB
}

// NewPostgresDeckRepo creates a gorm-backed deck repository and migrates the
// decks table.
func NewPostgresDeckRepo(db *gorm.DB) (DeckRepo, error) {
	if err := db.AutoMigrate(&deckRow{}); err != nil {
		return nil, err
	}
	return &postgresDeckRepo{db: db}, nil
}

func (r *postgresDeckRepo) Create(ctx context.Context, deck *model.Deck) error {
	row := deckRow{
		ID:          deck.ID,
		Name:        deck.Name,
		Cards:       deck.Cards,
		SleeveColor: deck.SleeveColor,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *postgresDeckRepo) GetByID(ctx context.Context, id string) (*model.Deck, error) {
	var row deckRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (r *postgresDeckRepo) List(ctx context.Context) ([]*model.Deck, error) {
	var rows []deckRow
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	decks := make([]*model.Deck, 0, len(rows))
	for i := range rows {
		decks = append(decks, rows[i].toModel())
	}
	return decks, nil
}

func (r *postgresDeckRepo) Update(ctx context.Context, id string, update *model.DeckUpdate) (*model.Deck, error) {
	var out *model.Deck
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row deckRow
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		if update.Name != nil {
			row.Name = *update.Name
		}
		if update.Cards != nil {
			row.Cards = *update.Cards
		}
		if update.SleeveColor != nil {
			row.SleeveColor = *update.SleeveColor
		}
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		out = row.toModel()
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return out, err
}

func (r *postgresDeckRepo) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&deckRow{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
