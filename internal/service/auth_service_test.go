package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantTokenRoundTrip(t *testing.T) {
	svc := NewAuthService("secret", time.Hour)

	token, err := svc.GenerateParticipantToken("s1", "p1")
	require.NoError(t, err)

	claims, err := svc.ValidateParticipantToken(token)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, "p1", claims.ParticipantID)
}

func TestParticipantTokenRejections(t *testing.T) {
	svc := NewAuthService("secret", time.Hour)
	token, err := svc.GenerateParticipantToken("s1", "p1")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewAuthService("other", time.Hour).ValidateParticipantToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewAuthService("secret", -time.Minute)
		old, err := expired.GenerateParticipantToken("s1", "p1")
		require.NoError(t, err)
		_, err = svc.ValidateParticipantToken(old)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateParticipantToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sessionId": "s1", "participantId": "p1"})
		raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateParticipantToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
