package model

// CardImageURIs holds image links at the sizes the catalog exposes
type CardImageURIs struct {
	Small  string `json:"small,omitempty"`
	Normal string `json:"normal,omitempty"`
	Large  string `json:"large,omitempty"`
}

// Card is a catalog card record (simplified)
type Card struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	ManaCost   string         `json:"mana_cost,omitempty"`
	TypeLine   string         `json:"type_line,omitempty"`
	OracleText string         `json:"oracle_text,omitempty"`
	Power      string         `json:"power,omitempty"`
	Toughness  string         `json:"toughness,omitempty"`
	ImageURIs  *CardImageURIs `json:"image_uris,omitempty"`
	Colors     []string       `json:"colors,omitempty"`
	CMC        float64        `json:"cmc,omitempty"`
}

// CardQuery is a free-text search plus structured filters
type CardQuery struct {
	Text   string
	Colors []string
	Types  []string
	Page   int
}

// CardPage is one page of search results
type CardPage struct {
	Data       []Card `json:"data"`
	HasMore    bool   `json:"has_more"`
	TotalCards int    `json:"total_cards"`
}
