package model

import "github.com/golang-jwt/jwt/v5"

// ParticipantClaims are JWT claims scoping a client to one participant seat
type ParticipantClaims struct {
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	jwt.RegisteredClaims
}
