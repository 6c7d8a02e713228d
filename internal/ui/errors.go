package ui

import "errors"

// ErrInputClosed is returned by StdinGate when its input ends before the
// operator confirmed.
var ErrInputClosed = errors.New("ui: operator input closed")
