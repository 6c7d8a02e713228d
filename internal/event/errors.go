package event

import "errors"

// Sentinel errors shared by all events.
var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrNotLoaded        = errors.New("event ticked before load")
)
