package handler

import (
	"decklobby/internal/model"
	"decklobby/internal/service"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// DeckHandler handles saved deck endpoints
type DeckHandler struct {
	deckSvc *service.DeckService
}

// NewDeckHandler creates a new deck handler
func NewDeckHandler(deckSvc *service.DeckService) *DeckHandler {
	return &DeckHandler{deckSvc: deckSvc}
}

// Create handles POST /v1/decks
func (h *DeckHandler) Create(w http.ResponseWriter, r *http.Request) {
	var deck model.Deck
	if err := json.NewDecoder(r.Body).Decode(&deck); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.deckSvc.CreateDeck(r.Context(), &deck)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// List handles GET /v1/decks
func (h *DeckHandler) List(w http.ResponseWriter, r *http.Request) {
	decks, err := h.deckSvc.ListDecks(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decks)
}

// Get handles GET /v1/decks/{deckId}
func (h *DeckHandler) Get(w http.ResponseWriter, r *http.Request) {
	deck, err := h.deckSvc.GetDeck(r.Context(), mux.Vars(r)["deckId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

// Update handles PATCH /v1/decks/{deckId}
func (h *DeckHandler) Update(w http.ResponseWriter, r *http.Request) {
	var update model.DeckUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deck, err := h.deckSvc.UpdateDeck(r.Context(), mux.Vars(r)["deckId"], &update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

// Delete handles DELETE /v1/decks/{deckId}
func (h *DeckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.deckSvc.DeleteDeck(r.Context(), mux.Vars(r)["deckId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
