package voice

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrUserOffline     = errors.New("user has no active connection")
	ErrChannelNotFound = errors.New("voice channel not found")
)
