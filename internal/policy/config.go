package policy

import (
	"encoding/json"
	"fmt"
)

// DMPolicy controls whether unknown inbound senders are rejected.
type DMPolicy string

const (
	// DMPolicyAllowlist admits only listed senders and domains.
	DMPolicyAllowlist DMPolicy = "allowlist"

	// DMPolicyOpen admits every sender.
	DMPolicyOpen DMPolicy = "open"
)

// SecurityConfig is the persisted trust configuration. A nil *SecurityConfig
// means the file does not exist and nothing is restricted.
type SecurityConfig struct {
	// AlertChannel and AlertTo say where to report a blocked inbound sender.
	AlertChannel string `json:"alertChannel,omitempty"`
	AlertTo      string `json:"alertTo,omitempty"`

	// OutboundApprovalChannel and OutboundApprovalTo say where humans hear
	// about messages waiting for approval.
	OutboundApprovalChannel string `json:"outboundApprovalChannel,omitempty"`
	OutboundApprovalTo      string `json:"outboundApprovalTo,omitempty"`

	// Email holds the address policy. Nil means outbound and inbound are both
	// unrestricted even though the file exists.
	Email *EmailConfig `json:"email,omitempty"`

	// extra keeps top-level keys this package does not know about so that a
	// rewrite does not drop settings other tools store in the same file.
	extra map[string]json.RawMessage
}

// EmailConfig is the address policy section of SecurityConfig.
type EmailConfig struct {
	DMPolicy           DMPolicy `json:"dmPolicy,omitempty"`
	AllowFrom          []string `json:"allowFrom,omitempty"`
	AllowDomains       []string `json:"allowDomains,omitempty"`
	ApprovedRecipients []string `json:"approvedRecipients,omitempty"`

	// AlertOnBlocked disables blocked-sender alerts when explicitly false.
	AlertOnBlocked *bool `json:"alertOnBlocked,omitempty"`
}

// Target is a notification destination: a channel name and an address on
// that channel.
type Target struct {
	Channel string
	To      string
}

// Valid reports whether both parts are set.
func (t Target) Valid() bool {
	return t.Channel != "" && t.To != ""
}

// SenderAllowed reports whether sender may reach the agent.
func (c *SecurityConfig) SenderAllowed(sender string) bool {
	if c == nil || c.Email == nil || c.Email.DMPolicy != DMPolicyAllowlist {
		return true
	}

	email := ExtractEmail(sender)
	if containsFold(c.Email.AllowFrom, email) {
		return true
	}
	return containsFold(c.Email.AllowDomains, ExtractDomain(email))
}

// RecipientApproved reports whether mail to recipient can go out without
// human approval.
func (c *SecurityConfig) RecipientApproved(recipient string) bool {
	if c == nil || c.Email == nil {
		return true
	}

	email := ExtractEmail(recipient)
	switch {
	case containsFold(c.Email.ApprovedRecipients, email):
		return true
	case containsFold(c.Email.AllowDomains, ExtractDomain(email)):
		return true
	case containsFold(c.Email.AllowFrom, email):
		return true
	}
	return false
}

// AlertTarget returns where blocked-sender alerts go. ok is false when no
// target is configured or alerts are switched off.
func (c *SecurityConfig) AlertTarget() (Target, bool) {
	if c == nil {
		return Target{}, false
	}
	if c.Email != nil && c.Email.AlertOnBlocked != nil && !*c.Email.AlertOnBlocked {
		return Target{}, false
	}
	t := Target{Channel: c.AlertChannel, To: c.AlertTo}
	return t, t.Valid()
}

// ApprovalTarget returns where pending-approval notices go.
func (c *SecurityConfig) ApprovalTarget() (Target, bool) {
	if c == nil {
		return Target{}, false
	}
	t := Target{Channel: c.OutboundApprovalChannel, To: c.OutboundApprovalTo}
	return t, t.Valid()
}

// addApprovedRecipient adds the normalized address and reports whether the
// list changed.
func (c *SecurityConfig) addApprovedRecipient(recipient string) (string, bool) {
	email := ExtractEmail(recipient)
	if c.Email == nil {
		c.Email = &EmailConfig{}
	}
	if containsFold(c.Email.ApprovedRecipients, email) {
		return email, false
	}
	c.Email.ApprovedRecipients = append(c.Email.ApprovedRecipients, email)
	return email, true
}

// securityConfigFields is SecurityConfig without its methods, so the
// custom (un)marshalers below can delegate to encoding/json.
type securityConfigFields SecurityConfig

var knownKeys = []string{"alertChannel", "alertTo", "outboundApprovalChannel", "outboundApprovalTo", "email"}

// UnmarshalJSON decodes the known fields and keeps every other top-level key.
func (c *SecurityConfig) UnmarshalJSON(data []byte) error {
	var fields securityConfigFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range knownKeys {
		delete(all, k)
	}

	*c = SecurityConfig(fields)
	if len(all) > 0 {
		c.extra = all
	}
	return nil
}

// MarshalJSON encodes the known fields merged with the preserved keys.
func (c SecurityConfig) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(securityConfigFields(c))
	if err != nil {
		return nil, err
	}
	if len(c.extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(c.extra)+len(knownKeys))
	for k, v := range c.extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, fmt.Errorf("re-read known fields: %w", err)
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}
