// Package provider defines the interface for outbound delivery backends.
package provider

import (
	"context"
	"errors"
)

// ErrNoRecipient is returned by senders when Message.To is empty.
var ErrNoRecipient = errors.New("message has no recipient")

// Message is an outbound email as the gate hands it to a backend.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message and returns the backend's confirmation id.
//
// inboxID selects the sending identity. Backends that only have one identity
// may ignore it.
type Sender interface {
	Send(ctx context.Context, inboxID string, msg Message) (string, error)

	// Name returns the human-readable name of this backend.
	Name() string
}
