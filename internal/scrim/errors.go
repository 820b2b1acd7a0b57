package scrim

import "errors"

var (
	ErrNotFound            = errors.New("scrim not found")
	ErrInvalidState        = errors.New("operation not allowed in current status")
	ErrAlreadyJoined       = errors.New("already registered for this scrim")
	ErrScrimFull           = errors.New("scrim is full")
	ErrNotRegistered       = errors.New("not registered for this scrim")
	ErrInsufficientPlayers = errors.New("need at least 2 players in the waiting room")
	ErrUnauthorized        = errors.New("actor is not allowed to manage this scrim")
	ErrInvalidTimeFormat   = errors.New("invalid time format, expected YYYY-MM-DD HH:MM")
	ErrTimeInPast          = errors.New("scheduled time must be in the future")
	ErrInvalidMaxPlayers   = errors.New("max players must be an even number of at least 2")
	ErrProvisioning        = errors.New("failed to provision voice channels")
)
