package ws

import (
	"decklobby/internal/model"
	"encoding/json"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client message types
const (
	MsgSubscribe   MessageType = "subscribe"
	MsgUnsubscribe MessageType = "unsubscribe"
	MsgAction      MessageType = "action"
)

// Server message types
const (
	MsgSubscribed     MessageType = "subscribed"
	MsgUnsubscribed   MessageType = "unsubscribed"
	MsgSessionUpdated MessageType = "session_updated"
	MsgError          MessageType = "error"
)

// ClientMessage is a frame sent by a client
type ClientMessage struct {
	Type          MessageType     `json:"type"`
	SessionID     string          `json:"sessionId,omitempty"`
	ParticipantID string          `json:"participantId,omitempty"`
	Action        json.RawMessage `json:"action,omitempty"`
}

// ServerMessage is a frame pushed by the server
type ServerMessage struct {
	Type          MessageType     `json:"type"`
	SessionID     string          `json:"sessionId,omitempty"`
	ParticipantID string          `json:"participantId,omitempty"`
	Session       *model.Session  `json:"session,omitempty"`
	Action        json.RawMessage `json:"action,omitempty"`
	Error         string          `json:"error,omitempty"`
}

func errorFrame(msg string) []byte {
	data, _ := json.Marshal(ServerMessage{Type: MsgError, Error: msg})
	return data
}
