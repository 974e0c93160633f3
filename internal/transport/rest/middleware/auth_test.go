package middleware

import (
	"decklobby/internal/service"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireParticipant(t *testing.T) {
	auth := service.NewAuthService("mw-secret", time.Hour)
	mw := NewAuthMiddleware(auth)

	r := mux.NewRouter()
	r.Handle("/sessions/{sessionId}/participants/{participantId}", mw.RequireParticipant(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(GetSessionID(r.Context()) + "/" + GetParticipantID(r.Context())))
		}),
	))

	token, err := auth.GenerateParticipantToken("s1", "p1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing header", "/sessions/s1/participants/p1", "", http.StatusUnauthorized},
		{"not bearer", "/sessions/s1/participants/p1", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "/sessions/s1/participants/p1", "Bearer nope", http.StatusUnauthorized},
		{"other session", "/sessions/s2/participants/p1", "Bearer " + token, http.StatusForbidden},
		{"other participant", "/sessions/s1/participants/p2", "Bearer " + token, http.StatusForbidden},
		{"own seat", "/sessions/s1/participants/p1", "bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("PATCH", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "s1/p1", rec.Body.String())
			}
		})
	}
}
