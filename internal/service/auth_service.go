package service

import (
	"decklobby/internal/model"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService issues and checks participant-scoped tokens
type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		ttl:       ttl,
	}
}

// GenerateParticipantToken creates a token bound to one seat in one session
func (s *AuthService) GenerateParticipantToken(sessionID, participantID string) (string, error) {
	now := time.Now()
	claims := &model.ParticipantClaims{
		SessionID:     sessionID,
		ParticipantID: participantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   participantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateParticipantToken validates a participant JWT and returns claims
func (s *AuthService) ValidateParticipantToken(tokenString string) (*model.ParticipantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.ParticipantClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.ParticipantClaims)
	if !ok || !token.Valid || claims.SessionID == "" || claims.ParticipantID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
