package notify

import "errors"

// Sentinel errors for the notify worker.
var (
	// ErrMaxTriesExhausted indicates a job was dropped because its
	// retry budget reached zero before a successful delivery.
	ErrMaxTriesExhausted = errors.New("max tries exhausted")
)
