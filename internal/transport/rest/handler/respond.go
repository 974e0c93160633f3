package handler

import (
	"decklobby/internal/service"
	"encoding/json"
	"errors"
	"net/http"
)

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses. The
// message keeps the human-readable reason so clients can show why.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNotAcceptingPlayers),
		errors.Is(err, service.ErrFull),
		errors.Is(err, service.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, service.ErrCodeExhausted):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  service.ErrorKind(err),
	})
}
