package instrumentation

import "strings"

// ExtractUserDomain reduces an email address to its domain so it can be used
// as a metric label without creating one series per address.
//
// Example:
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
//	ExtractUserDomain("")                  // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}

	return "unknown"
}

// Label values for gate metrics.
const (
	ResultSent   = "sent"
	ResultQueued = "queued"
	ResultError  = "error"

	ActionApprove = "approve"
	ActionReject  = "reject"

	VerdictDelivered = "delivered"
	VerdictBlocked   = "blocked"
)
