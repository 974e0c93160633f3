package handler

import (
	"decklobby/internal/model"
	"decklobby/internal/service"
	"decklobby/internal/transport/rest/middleware"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// SessionHandler handles lobby session endpoints
type SessionHandler struct {
	lobbySvc *service.LobbyService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(lobbySvc *service.LobbyService) *SessionHandler {
	return &SessionHandler{lobbySvc: lobbySvc}
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.lobbySvc.CreateSession(r.Context(), req.HostName, req.Capacity)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Join handles POST /v1/sessions/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req model.JoinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.lobbySvc.JoinSession(r.Context(), req.Code, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// List handles GET /v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.lobbySvc.ListOpenSessions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Get handles GET /v1/sessions/{sessionId}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.lobbySvc.GetSession(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GetByCode handles GET /v1/sessions/code/{code}
func (h *SessionHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	session, err := h.lobbySvc.GetSessionByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// UpdateParticipant handles PATCH /v1/sessions/{sessionId}/participants/{participantId}.
// The seat comes from the verified token; the middleware has already matched it
// against the route.
func (h *SessionHandler) UpdateParticipant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var update model.ParticipantUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.lobbySvc.UpdateParticipant(ctx, middleware.GetSessionID(ctx), middleware.GetParticipantID(ctx), update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Leave handles DELETE /v1/sessions/{sessionId}/participants/{participantId}
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := h.lobbySvc.LeaveSession(ctx, middleware.GetSessionID(ctx), middleware.GetParticipantID(ctx))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if session.Status == model.SessionClosed {
		writeJSON(w, http.StatusOK, map[string]interface{}{"closed": true, "session": session})
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Start handles POST /v1/sessions/{sessionId}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	session, err := h.lobbySvc.AttemptStart(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
