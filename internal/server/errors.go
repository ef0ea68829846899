package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrMaxClientsReached    = errors.New("maximum clients reached")
	ErrHubClosed            = errors.New("hub is closed")
	ErrNoController         = errors.New("hub does not accept commands")
	ErrInvalidCommand       = errors.New("invalid command")
)
