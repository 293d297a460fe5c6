package session

import "errors"

// Validation errors: the request is rejected without any state change.
var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidAction   = errors.New("invalid action")
	ErrAlreadyInGame   = errors.New("already in a game")
	ErrTokenInUse      = errors.New("reconnect token already in use")
)

// Authorization errors.
var ErrUnauthorized = errors.New("Unauthorized")

// Not-found errors.
var (
	ErrGameNotFound      = errors.New("game not found")
	ErrNoSessionToRejoin = errors.New("no session to rejoin")
)

// ErrIllegalMove wraps the rule engine's rejection reason.
var ErrIllegalMove = errors.New("illegal move")
