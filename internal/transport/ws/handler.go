package ws

import (
	"context"
	"decklobby/internal/model"
	"decklobby/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const lookupTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; CORS is enforced on the REST surface
	},
}

// SessionLookup resolves a session id so subscribe can reject unknown ids
type SessionLookup interface {
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
}

// TokenValidator checks an optional participant token on connect
type TokenValidator interface {
	ValidateParticipantToken(token string) (*model.ParticipantClaims, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub        *Hub
	sessions   SessionLookup
	auth       TokenValidator
	sendBuffer int
	logger     *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, sessions SessionLookup, auth TokenValidator, sendBuffer int, logger *zap.Logger) *Handler {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &Handler{
		hub:        hub,
		sessions:   sessions,
		auth:       auth,
		sendBuffer: sendBuffer,
		logger:     logger,
	}
}

// ServeWS handles GET /v1/ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	var claims *model.ParticipantClaims
	if token := r.URL.Query().Get("token"); token != "" {
		c, err := h.auth.ValidateParticipantToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		claims = c
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(uuid.NewString(), wsConn, h.sendBuffer)
	if claims != nil {
		client.participantID = claims.ParticipantID
		client.sessionID = claims.SessionID
	}
	h.logger.Debug("websocket connected",
		zap.String("client_id", client.id),
		zap.String("participant_id", client.participantID))

	go client.writePump()
	go h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.registry.Unsubscribe(c)
		c.Close()
		c.conn.Close()
		h.logger.Debug("websocket disconnected", zap.String("client_id", c.id))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(c, errorFrame("bad json"))
			continue
		}
		h.dispatch(c, &msg)
	}
}

func (h *Handler) dispatch(c *Client, msg *ClientMessage) {
	switch msg.Type {
	case MsgSubscribe:
		h.subscribe(c, msg.SessionID)

	case MsgUnsubscribe:
		h.hub.registry.Unsubscribe(c)
		data, _ := json.Marshal(ServerMessage{Type: MsgUnsubscribed})
		h.reply(c, data)

	case MsgAction:
		sessionID, ok := h.hub.registry.SessionOf(c)
		if !ok {
			h.reply(c, errorFrame("subscribe to a session before sending actions"))
			return
		}
		sender := msg.ParticipantID
		if c.participantID != "" {
			if sender != "" && sender != c.participantID {
				h.reply(c, errorFrame("participantId does not match token"))
				return
			}
			sender = c.participantID
		}
		if sender == "" {
			h.reply(c, errorFrame("participantId is required"))
			return
		}
		if !h.inRoster(sessionID, sender) {
			h.reply(c, errorFrame("participant is not in this session"))
			return
		}
		h.hub.PublishAction(sessionID, sender, msg.Action, c)

	default:
		h.reply(c, errorFrame("unknown type"))
	}
}

func (h *Handler) subscribe(c *Client, sessionID string) {
	if sessionID == "" {
		h.reply(c, errorFrame("sessionId is required"))
		return
	}
	if c.sessionID != "" && c.sessionID != sessionID {
		h.reply(c, errorFrame("token is not valid for this session"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	if _, err := h.sessions.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.reply(c, errorFrame("session not found"))
		} else {
			h.reply(c, errorFrame("failed to look up session"))
		}
		return
	}

	// The ack is queued before any frame published to the new subscription.
	data, _ := json.Marshal(ServerMessage{Type: MsgSubscribed, SessionID: sessionID})
	h.hub.registry.subscribe(sessionID, c, func() {
		h.reply(c, data)
	})
}

// inRoster reports whether participantID currently holds a seat in the session
func (h *Handler) inRoster(sessionID, participantID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	session, err := h.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return false
	}
	p, _ := session.Participant(participantID)
	return p != nil
}

// reply queues a frame for c alone. A connection that cannot take it is closed.
func (h *Handler) reply(c *Client, data []byte) bool {
	if err := c.Send(data); err != nil {
		h.hub.drop(c, "", err)
		return false
	}
	return true
}
