package model

import (
	"encoding/json"
	"time"
)

type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

const (
	MinCapacity = 2
	MaxCapacity = 8
)

// Session is a pre-game lobby. Participants are kept in join order.
type Session struct {
	ID                string         `json:"id"`
	Code              string         `json:"code"`
	HostParticipantID string         `json:"hostParticipantId"`
	Participants      []*Participant `json:"participants"`
	Capacity          int            `json:"capacity"`
	Status            SessionStatus  `json:"status"`
	Version           int            `json:"version"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// Participant is one joined client within a session
type Participant struct {
	ID                   string    `json:"id"`
	DisplayName          string    `json:"displayName"`
	IsHost               bool      `json:"isHost"`
	SelectedResourceID   *string   `json:"selectedResourceId"`
	SelectedResourceName string    `json:"selectedResourceName,omitempty"`
	IsReady              bool      `json:"isReady"`
	JoinedAt             time.Time `json:"joinedAt"`
}

// ParticipantUpdate is a partial update; unset fields are left unchanged.
type ParticipantUpdate struct {
	SelectedResourceID NullableString `json:"selectedResourceId"`
	IsReady            *bool          `json:"isReady,omitempty"`
}

// NullableString tells an absent JSON field apart from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// Clone returns a deep copy that shares nothing with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Participants = make([]*Participant, len(s.Participants))
	for i, p := range s.Participants {
		pc := *p
		if p.SelectedResourceID != nil {
			id := *p.SelectedResourceID
			pc.SelectedResourceID = &id
		}
		c.Participants[i] = &pc
	}
	return &c
}

// Participant looks up a participant by id.
func (s *Session) Participant(id string) (*Participant, int) {
	for i, p := range s.Participants {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

func (s *Session) IsFull() bool {
	return len(s.Participants) >= s.Capacity
}

// AllReady reports whether every participant has flagged ready.
func (s *Session) AllReady() bool {
	for _, p := range s.Participants {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	HostName string `json:"hostName"`
	Capacity *int   `json:"capacity,omitempty"`
}

// JoinSessionRequest is the request body for joining a session by code
type JoinSessionRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SessionJoinResponse is returned from create and join. ParticipantID is the
// caller's own id; the roster does not say "who is me".
type SessionJoinResponse struct {
	Session       *Session `json:"session"`
	ParticipantID string   `json:"participantId"`
	Token         string   `json:"token"`
}
