package sanitize

// RawEmail is an inbound message as received from the mail provider.
// Nothing in it is trusted.
type RawEmail struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// SanitizedEmail is the derived, size-bounded form of a RawEmail.
type SanitizedEmail struct {
	From    string `json:"from"`
	Subject string `json:"subject"`

	// Body is the text selected for downstream consumption.
	Body string `json:"body"`

	// Text is the original plain text part with control characters removed
	// and line endings normalized. Empty when the message had no text part.
	Text string `json:"text,omitempty"`

	// HTML is the original HTML part, untouched.
	HTML string `json:"html,omitempty"`

	// Truncated reports whether Body was cut to the byte cap.
	Truncated bool `json:"truncated"`
}
