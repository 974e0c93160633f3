package repository

import (
	"context"
	"decklobby/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeckRepo stores saved decks keyed by an opaque id. Lookups of an unknown id
// return (nil, nil).
type DeckRepo interface {
	Create(ctx context.Context, deck *model.Deck) error
	GetByID(ctx context.Context, id string) (*model.Deck, error)
	List(ctx context.Context) ([]*model.Deck, error)
	Update(ctx context.Context, id string, update *model.DeckUpdate) (*model.Deck, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type mongoDeckRepo struct {
	collection *mongo.Collection
}

// NewMongoDeckRepo creates a deck repository over the "decks" collection
func NewMongoDeckRepo(db *mongo.Database) DeckRepo {
	return &mongoDeckRepo{
		collection: db.Collection("decks"),
	}
}

func (r *mongoDeckRepo) Create(ctx context.Context, deck *model.Deck) error {
	_, err := r.collection.InsertOne(ctx, deck)
	return err
}

func (r *mongoDeckRepo) GetByID(ctx context.Context, id string) (*model.Deck, error) {
	var deck model.Deck
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&deck)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &deck, nil
}

func (r *mongoDeckRepo) List(ctx context.Context) ([]*model.Deck, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	decks := []*model.Deck{}
	if err := cursor.All(ctx, &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

func (r *mongoDeckRepo) Update(ctx context.Context, id string, update *model.DeckUpdate) (*model.Deck, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Cards != nil {
		set["cards"] = *update.Cards
	}
	if update.SleeveColor != nil {
		set["sleeveColor"] = *update.SleeveColor
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var deck model.Deck
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&deck)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &deck, nil
}

func (r *mongoDeckRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
