// Package entity defines the core domain entities and validation logic for the
// PubSubHubbub hub: topics, subscribers, listeners, and the rules that govern
// how they relate to each other.
package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")

	// ErrInvalidURL indicates a URL failed is_valid_url
	ErrInvalidURL = errors.New("invalid url")

	// ErrInvalidContent indicates a fetched feed was unparseable or marked bozo
	ErrInvalidContent = errors.New("invalid feed content")

	// ErrUnsupportedContentType indicates a topic's content type is neither atom nor rss
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrTopicNotFound indicates a topic lookup failed
	ErrTopicNotFound = errors.New("topic not found")

	// ErrSubscriberNotFound indicates a subscriber is not registered on a topic
	ErrSubscriberNotFound = errors.New("subscriber not found")

	// ErrListenerNotFound indicates a listener lookup failed
	ErrListenerNotFound = errors.New("listener not found")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
