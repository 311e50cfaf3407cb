package pending

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no pending message has the requested id.
	ErrNotFound = errors.New("pending message not found")

	// ErrDuplicateID is returned by Enqueue when the id is already queued.
	ErrDuplicateID = errors.New("pending message id already exists")

	// ErrEmptyID is returned by Enqueue for a message without an id.
	ErrEmptyID = errors.New("pending message id is empty")
)

// Message is an outbound email awaiting approval.
type Message struct {
	ID        string    `json:"id"`
	InboxID   string    `json:"inboxId"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Text      string    `json:"text"`
	HTML      string    `json:"html,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
