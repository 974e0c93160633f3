package model

const DefaultSleeveColor = "bg-red-600"

// DeckCard is one card entry of a saved deck
type DeckCard struct {
	ID       string `json:"id" bson:"id"`
	Quantity int    `json:"quantity" bson:"quantity"`
}

// Deck is a player's saved build
type Deck struct {
	ID          string     `json:"id" bson:"_id"`
	Name        string     `json:"name" bson:"name"`
	Cards       []DeckCard `json:"cards" bson:"cards"`
	SleeveColor string     `json:"sleeveColor" bson:"sleeveColor"`
}

// DeckUpdate is a partial deck update
type DeckUpdate struct {
	Name        *string     `json:"name,omitempty"`
	Cards       *[]DeckCard `json:"cards,omitempty"`
	SleeveColor *string     `json:"sleeveColor,omitempty"`
}
