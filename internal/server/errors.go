package server

import "errors"

// Operation failures surfaced to clients. Each maps to one entry of the
// protocol error taxonomy; the ws and HTTP boundaries translate them and
// never let them take down a connection.
var (
	errNotFound          = errors.New("not found")
	errInvalidTransition = errors.New("invalid transition")
	errSessionNotLive    = errors.New("session not live")
	errSessionExpired    = errors.New("session expired")
	errJoinWindowClosed  = errors.New("join window closed")
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, errNotFound):
		return "NotFound"
	case errors.Is(err, errInvalidTransition):
		return "InvalidTransition"
	case errors.Is(err, errSessionNotLive):
		return "SessionNotLive"
	case errors.Is(err, errSessionExpired):
		return "SessionExpired"
	case errors.Is(err, errJoinWindowClosed):
		return "JoinWindowClosed"
	default:
		return ""
	}
}
