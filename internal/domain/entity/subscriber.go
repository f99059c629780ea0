package entity

import "time"

// Subscriber is an endpoint that has asked to receive content deltas for one
// or more topics. Its topic memberships are tracked by the repository layer
// as an edge table, not as an in-memory reference held here.
type Subscriber struct {
	CallbackURL string
	CreatedDate time.Time
}

// NewSubscriber constructs a Subscriber, validating its callback URL.
func NewSubscriber(callbackURL string) (*Subscriber, error) {
	if err := ValidateURL(callbackURL); err != nil {
		return nil, err
	}
	return &Subscriber{
		CallbackURL: callbackURL,
		CreatedDate: time.Now(),
	}, nil
}
