package ws

import (
	"decklobby/internal/model"
	"encoding/json"

	"go.uber.org/zap"
)

// Hub is the broadcast relay. It owns no session state: it resolves the
// subscriber set from the registry, releases the registry lock, then writes
// to each connection. A connection that fails a write is unsubscribed and
// closed; the rest of the broadcast carries on.
type Hub struct {
	registry *Registry
	logger   *zap.Logger
}

// NewHub creates a new relay over registry
func NewHub(registry *Registry, logger *zap.Logger) *Hub {
	return &Hub{
		registry: registry,
		logger:   logger,
	}
}

// Registry exposes the subscriber registry
func (h *Hub) Registry() *Registry {
	return h.registry
}

// PublishSnapshot sends a full session snapshot to every subscriber of the
// session (implements service.Broadcaster). A connection never receives a
// snapshot older than one it already got.
func (h *Hub) PublishSnapshot(session *model.Session) {
	data, err := json.Marshal(ServerMessage{
		Type:      MsgSessionUpdated,
		SessionID: session.ID,
		Session:   session,
	})
	if err != nil {
		h.logger.Error("failed to encode snapshot", zap.String("session_id", session.ID), zap.Error(err))
		return
	}

	for _, ref := range h.registry.refsOf(session.ID) {
		ref.sub.mu.Lock()
		if session.Version <= ref.sub.lastVersion {
			ref.sub.mu.Unlock()
			continue
		}
		err := ref.subscriber.Send(data)
		if err == nil {
			ref.sub.lastVersion = session.Version
		}
		ref.sub.mu.Unlock()

		if err != nil {
			h.drop(ref.subscriber, session.ID, err)
		}
	}
}

// PublishAction forwards an opaque action payload to every subscriber of the
// session except origin. The payload is not inspected.
func (h *Hub) PublishAction(sessionID, senderParticipantID string, payload json.RawMessage, origin Subscriber) {
	data, err := json.Marshal(ServerMessage{
		Type:          MsgAction,
		SessionID:     sessionID,
		ParticipantID: senderParticipantID,
		Action:        payload,
	})
	if err != nil {
		h.logger.Warn("failed to encode action", zap.String("session_id", sessionID), zap.Error(err))
		return
	}

	for _, ref := range h.registry.refsOf(sessionID) {
		if ref.subscriber == origin {
			continue
		}
		ref.sub.mu.Lock()
		err := ref.subscriber.Send(data)
		ref.sub.mu.Unlock()
		if err != nil {
			h.drop(ref.subscriber, sessionID, err)
		}
	}
}

func (h *Hub) drop(conn Subscriber, sessionID string, cause error) {
	if h.registry.Unsubscribe(conn) {
		h.logger.Warn("dropping subscriber",
			zap.String("session_id", sessionID),
			zap.String("client_id", conn.ID()),
			zap.Error(cause))
	}
	conn.Close()
}
