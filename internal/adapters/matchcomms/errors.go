package matchcomms

import "errors"

// Sentinel errors for the matchcomms client.
var (
	ErrDial   = errors.New("matchcomms: dial failed")
	ErrClosed = errors.New("matchcomms: client closed")
)
