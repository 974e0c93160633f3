package rest

import (
	"bytes"
	"decklobby/internal/model"
	"decklobby/internal/repository"
	"decklobby/internal/service"
	"decklobby/internal/transport/ws"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiFixture struct {
	t       *testing.T
	handler http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cards/search":
			w.Write([]byte(`{"data":[{"id":"c1","name":"Llanowar Elves"}],"has_more":false,"total_cards":1}`))
		case "/cards/c1":
			w.Write([]byte(`{"id":"c1","name":"Llanowar Elves"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(catalog.Close)

	logger := zap.NewNop()
	decks := repository.NewMemoryDeckRepo()
	auth := service.NewAuthService("api-secret", time.Hour)
	lobby := service.NewLobbyService(repository.NewSessionRepo(), decks, auth, logger)
	hub := ws.NewHub(ws.NewRegistry(), logger)
	lobby.SetBroadcaster(hub)

	return &apiFixture{t: t, handler: NewRouter(&Container{
		AuthService:  auth,
		LobbyService: lobby,
		DeckService:  service.NewDeckService(decks),
		CardService:  service.NewCardService(service.NewScryfallClient(catalog.URL, logger), nil, logger),
		WSHub:        hub,
		Logger:       logger,
	})}
}

func (f *apiFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do("POST", "/v1/sessions", "", map[string]interface{}{"hostName": "Alice", "capacity": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	host := decode[model.SessionJoinResponse](t, rec)
	sid := host.Session.ID

	rec = f.do("POST", "/v1/sessions/join", "", map[string]string{"code": host.Session.Code, "name": "Bob"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	guest := decode[model.SessionJoinResponse](t, rec)

	rec = f.do("POST", "/v1/sessions/join", "", map[string]string{"code": host.Session.Code, "name": "Carol"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "full", decode[map[string]string](t, rec)["code"])

	rec = f.do("GET", "/v1/sessions/code/"+host.Session.Code, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[model.Session](t, rec).Participants, 2)

	rec = f.do("GET", "/v1/sessions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Session](t, rec), 1)

	// Save a deck so selection resolves a real resource.
	rec = f.do("POST", "/v1/decks", "", map[string]interface{}{"name": "Elves", "cards": []map[string]interface{}{{"id": "c1", "quantity": 4}}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	deck := decode[model.Deck](t, rec)

	hostPath := "/v1/sessions/" + sid + "/participants/" + host.ParticipantID
	guestPath := "/v1/sessions/" + sid + "/participants/" + guest.ParticipantID
	ready := map[string]interface{}{"selectedResourceId": deck.ID, "isReady": true}

	assert.Equal(t, http.StatusUnauthorized, f.do("PATCH", hostPath, "", ready).Code)
	assert.Equal(t, http.StatusForbidden, f.do("PATCH", hostPath, guest.Token, ready).Code)

	rec = f.do("PATCH", hostPath, host.Token, map[string]bool{"isReady": true})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", decode[map[string]string](t, rec)["code"])

	rec = f.do("PATCH", hostPath, host.Token, map[string]string{"selectedResourceId": "no-such-deck"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do("PATCH", hostPath, host.Token, ready)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Session](t, rec)
	p, _ := updated.Participant(host.ParticipantID)
	require.NotNil(t, p)
	assert.Equal(t, "Elves", p.SelectedResourceName)

	rec = f.do("POST", "/v1/sessions/"+sid+"/start", host.Token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.Equal(t, http.StatusOK, f.do("PATCH", guestPath, guest.Token, ready).Code)

	rec = f.do("POST", "/v1/sessions/"+sid+"/start", guest.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.SessionActive, decode[model.Session](t, rec).Status)

	rec = f.do("POST", "/v1/sessions/join", "", map[string]string{"code": host.Session.Code, "name": "Dave"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_accepting_players", decode[map[string]string](t, rec)["code"])

	require.Equal(t, http.StatusOK, f.do("DELETE", hostPath, host.Token, nil).Code)
	rec = f.do("DELETE", guestPath, guest.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]interface{}](t, rec)["closed"])

	assert.Equal(t, http.StatusNotFound, f.do("GET", "/v1/sessions/"+sid, "", nil).Code)
}

func TestCreateSessionRejectsBadInput(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do("POST", "/v1/sessions", "", map[string]interface{}{"hostName": "Alice", "capacity": 12})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decode[map[string]string](t, rec)["code"])

	req := httptest.NewRequest("POST", "/v1/sessions", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNotFound, f.do("GET", "/v1/sessions/code/NOPE22", "", nil).Code)
}

func TestDeckRoutes(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do("POST", "/v1/decks", "", map[string]interface{}{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do("POST", "/v1/decks", "", map[string]interface{}{"name": "Goblins"})
	require.Equal(t, http.StatusCreated, rec.Code)
	deck := decode[model.Deck](t, rec)
	assert.Equal(t, model.DefaultSleeveColor, deck.SleeveColor)

	rec = f.do("PATCH", "/v1/decks/"+deck.ID, "", map[string]string{"sleeveColor": "bg-black"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bg-black", decode[model.Deck](t, rec).SleeveColor)

	rec = f.do("GET", "/v1/decks", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Deck](t, rec), 1)

	assert.Equal(t, http.StatusOK, f.do("DELETE", "/v1/decks/"+deck.ID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do("GET", "/v1/decks/"+deck.ID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do("DELETE", "/v1/decks/"+deck.ID, "", nil).Code)
}

func TestCardRoutes(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do("GET", "/v1/cards/search?q=elves&colors=g&types=creature,elf&page=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[model.CardPage](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Llanowar Elves", page.Data[0].Name)

	rec = f.do("GET", "/v1/cards/c1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNotFound, f.do("GET", "/v1/cards/unknown", "", nil).Code)
}

func TestHealthAndCORS(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do("OPTIONS", "/v1/sessions/s1/start", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}
