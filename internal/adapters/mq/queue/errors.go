package queue

import "errors"

// Sentinel errors returned by Poll.
var (
	ErrTimeout = errors.New("queue: poll timed out")
	ErrClosed  = errors.New("queue: closed")
)
