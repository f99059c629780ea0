package entity

// Listener is an endpoint that wants to be told about every topic the hub
// comes to know about, not just ones it explicitly subscribed to. Like
// Subscriber, the set of topics a listener already knows about is tracked by
// the repository layer as an edge table.
type Listener struct {
	CallbackURL string
}

// NewListener constructs a Listener, validating its callback URL.
func NewListener(callbackURL string) (*Listener, error) {
	if err := ValidateURL(callbackURL); err != nil {
		return nil, err
	}
	return &Listener{CallbackURL: callbackURL}, nil
}
