package middleware

import (
	"context"
	"decklobby/internal/service"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type contextKey string

const (
	SessionIDKey     contextKey = "sessionId"
	ParticipantIDKey contextKey = "participantId"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireParticipant validates a participant JWT and checks it against the
// {sessionId} route variable and, when present, {participantId}: a client may
// only act on its own seat.
func (m *AuthMiddleware) RequireParticipant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		claims, err := m.authSvc.ValidateParticipantToken(token)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		vars := mux.Vars(r)
		if sid := vars["sessionId"]; sid != "" && sid != claims.SessionID {
			writeAuthError(w, http.StatusForbidden, "token not valid for this session")
			return
		}
		if pid := vars["participantId"]; pid != "" && pid != claims.ParticipantID {
			writeAuthError(w, http.StatusForbidden, "token not valid for this participant")
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID)
		ctx = context.WithValue(ctx, ParticipantIDKey, claims.ParticipantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetParticipantID extracts participant ID from context
func GetParticipantID(ctx context.Context) string {
	if v := ctx.Value(ParticipantIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetSessionID extracts session ID from context
func GetSessionID(ctx context.Context) string {
	if v := ctx.Value(SessionIDKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
