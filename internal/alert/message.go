package alert

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/teemow/mailgate/internal/pending"
)

// DefaultTimeZone is the zone used to render notice timestamps.
const DefaultTimeZone = "America/Chicago"

// timestampLayout renders like "1/2/06, 3:04 PM".
const timestampLayout = "1/2/06, 3:04 PM"

// LoadLocation resolves name, falling back to DefaultTimeZone and then UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimeZone
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	if loc, err := time.LoadLocation(DefaultTimeZone); err == nil {
		return loc
	}
	return time.UTC
}

// FormatTime renders t in loc with the notice layout. A nil loc means UTC.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(timestampLayout)
}

// BlockedSenderMessage renders the notice sent when an inbound sender is
// rejected by policy.
func BlockedSenderMessage(sender, subject string, at time.Time, loc *time.Location) string {
	return fmt.Sprintf("[BLOCKED] Email from %s\nSubject: \"%s\"\nTime: %s", sender, subject, FormatTime(at, loc))
}

// PendingApprovalMessage renders the notice sent when an outbound message is
// held for approval.
func PendingApprovalMessage(msg pending.Message, loc *time.Location) string {
	return fmt.Sprintf("[PENDING] Email to %s\nSubject: \"%s\"\nPreview: %s\nTime: %s\nApprove: mailgate pending approve %s\nReject: mailgate pending reject %s",
		msg.To, msg.Subject, preview(msg.Text, 200), FormatTime(msg.CreatedAt, loc), msg.ID, msg.ID)
}

func preview(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}
