package service

import "errors"

// Error kinds surfaced to callers. Operations wrap these with a human-readable
// reason, e.g. fmt.Errorf("%w: not all players are ready", ErrInvalidState).
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
	ErrNotAcceptingPlayers = errors.New("not accepting players")
	ErrFull                = errors.New("session is full")
	ErrInvalidState        = errors.New("invalid state")
	ErrCodeExhausted       = errors.New("no unique session code available")
)

// ErrorKind returns a stable short name for the error's kind, or "internal".
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotAcceptingPlayers):
		return "not_accepting_players"
	case errors.Is(err, ErrFull):
		return "full"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrCodeExhausted):
		return "exhausted"
	default:
		return "internal"
	}
}
