// Package policy decides who may reach the agent and who the agent may
// write to without a human in the loop.
//
// The decisions are driven by a SecurityConfig that operators edit by hand
// and that the approval workflow widens when a human approves a message.
// The config is loaded fresh on every query so edits made by another
// process are visible immediately.
//
// A missing config file is a valid state that means "no restriction". It is
// represented by a nil *SecurityConfig, and every query on a nil config
// answers "allowed":
//
//	var cfg *policy.SecurityConfig // absent
//	cfg.SenderAllowed("anyone@anywhere.com")     // true
//	cfg.RecipientApproved("anyone@anywhere.com") // true
//
// Inbound is stricter than outbound. A config without dmPolicy "allowlist"
// lets every sender through, while any config at all restricts outbound
// recipients, with the approval queue as the backstop.
package policy
