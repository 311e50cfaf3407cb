package sanitize

import (
	"fmt"
	"strings"
)

// DefaultMaxBodyBytes is the body cap used by Sanitize.
const DefaultMaxBodyBytes = 50 * 1024

// Sanitizer applies the sanitization pipeline with a configurable body cap.
// The zero value uses DefaultMaxBodyBytes.
type Sanitizer struct {
	// MaxBytes is the maximum UTF-8 length of the body before the
	// truncation marker is appended.
	MaxBytes int
}

// Sanitize runs the default pipeline.
func Sanitize(raw RawEmail) SanitizedEmail {
	return Sanitizer{}.Sanitize(raw)
}

// Sanitize selects, cleans and bounds the body of raw.
func (s Sanitizer) Sanitize(raw RawEmail) SanitizedEmail {
	limit := s.maxBytes()

	body := raw.Text
	if body == "" && raw.HTML != "" {
		body = StripHTML(raw.HTML)
	}

	body = StripControlChars(strings.ToValidUTF8(body, "\uFFFD"))
	body = NormalizeLineEndings(body)

	cut, truncated := TruncateUTF8(body, limit)
	if truncated {
		cut += truncationMarker(limit)
	}

	out := SanitizedEmail{
		From:      raw.From,
		Subject:   StripControlChars(raw.Subject),
		Body:      cut,
		HTML:      raw.HTML,
		Truncated: truncated,
	}
	if raw.Text != "" {
		out.Text = StripControlChars(NormalizeLineEndings(raw.Text))
	}
	return out
}

func (s Sanitizer) maxBytes() int {
	if s.MaxBytes <= 0 {
		return DefaultMaxBodyBytes
	}
	return s.MaxBytes
}

func truncationMarker(limit int) string {
	if limit%1024 == 0 {
		return fmt.Sprintf("\n\n[TRUNCATED - exceeded %dKB limit]", limit/1024)
	}
	return fmt.Sprintf("\n\n[TRUNCATED - exceeded %d byte limit]", limit)
}

// StripControlChars removes C0 control characters and DEL, keeping
// newline, tab and carriage return.
func StripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n', r == '\t', r == '\r':
			return r
		case r < 0x20, r == 0x7f:
			return -1
		}
		return r
	}, s)
}

// NormalizeLineEndings converts CRLF and lone CR to LF.
func NormalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// WrapForAgent renders a sanitized message in the envelope agents are told
// to treat as data, not instructions.
func WrapForAgent(e SanitizedEmail) string {
	return fmt.Sprintf("<email_content>\nFrom: %s\nSubject: %s\n\n%s\n</email_content>", e.From, e.Subject, e.Body)
}
