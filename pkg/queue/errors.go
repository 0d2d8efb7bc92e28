package queue

import "errors"

var (
	// Queue session is not active. Callers should send the user to the
	// activation flow.
	ErrNotActive = errors.New("queue is not active")

	ErrNotFound     = errors.New("ticket not found")
	ErrInvalidInput = errors.New("invalid ticket number")
)
