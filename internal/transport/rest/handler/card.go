package handler

import (
	"decklobby/internal/model"
	"decklobby/internal/service"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// CardHandler proxies card catalog lookups
type CardHandler struct {
	cardSvc *service.CardService
}

// NewCardHandler creates a new card handler
func NewCardHandler(cardSvc *service.CardService) *CardHandler {
	return &CardHandler{cardSvc: cardSvc}
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Search handles GET /v1/cards/search?q=&colors=&types=&page=
func (h *CardHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := model.CardQuery{
		Text:   query.Get("q"),
		Colors: splitList(query.Get("colors")),
		Types:  splitList(query.Get("types")),
		Page:   1,
	}
	if p := query.Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			q.Page = n
		}
	}

	page, err := h.cardSvc.Search(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /v1/cards/{cardId}
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, err := h.cardSvc.GetCard(r.Context(), mux.Vars(r)["cardId"])
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeServiceError(w, err)
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, card)
}
