package bridge

import "errors"

// Sentinel errors for the host bridge client.
var (
	ErrDial   = errors.New("bridge: dial failed")
	ErrClosed = errors.New("bridge: connection closed")
	ErrRemote = errors.New("bridge: host rejected request")
)
