package approval

import (
	"context"
	"errors"

	"github.com/teemow/mailgate/internal/alert"
	"github.com/teemow/mailgate/internal/history"
	"github.com/teemow/mailgate/internal/instrumentation"
	"github.com/teemow/mailgate/internal/logging"
	"github.com/teemow/mailgate/internal/policy"
	"github.com/teemow/mailgate/internal/sanitize"
)

// Verdict of Screen.Inbound.
type Verdict string

const (
	VerdictDelivered Verdict = "delivered"
	VerdictBlocked   Verdict = "blocked"
)

// InboundResult is the outcome of screening one inbound message.
type InboundResult struct {
	Verdict Verdict                 `json:"verdict"`
	Email   sanitize.SanitizedEmail `json:"email"`

	// Content is the agent-facing rendering. Empty when blocked.
	Content string `json:"content,omitempty"`

	Alerted bool `json:"alerted,omitempty"`
}

// Screen checks inbound mail before an agent sees it.
type Screen struct {
	deps Deps
}

// NewScreen creates a Screen. Policy must be set.
func NewScreen(deps Deps) (*Screen, error) {
	if deps.Policy == nil {
		return nil, errors.New("screen requires a policy")
	}
	return &Screen{deps: deps.withDefaults()}, nil
}

// Inbound sanitizes raw and checks its sender. Allowed mail is rendered for
// the agent. Blocked mail raises a best-effort alert and is recorded.
func (s *Screen) Inbound(ctx context.Context, raw sanitize.RawEmail) InboundResult {
	d := s.deps
	clean := d.Sanitizer.Sanitize(raw)

	if d.Policy.IsSenderAllowed(raw.From) {
		d.Metrics.RecordInbound(ctx, instrumentation.VerdictDelivered)
		return InboundResult{
			Verdict: VerdictDelivered,
			Email:   clean,
			Content: sanitize.WrapForAgent(clean),
		}
	}

	sender := policy.ExtractEmail(raw.From)
	d.Logger.Warn("inbound sender blocked",
		logging.Operation("screen"),
		logging.UserHash(sender),
		logging.Domain(sender))
	d.Metrics.RecordInbound(ctx, instrumentation.VerdictBlocked)

	target, ok := d.Policy.AlertTarget()
	alerted := d.notify(ctx, target, ok, alert.BlockedSenderMessage(raw.From, clean.Subject, d.Now(), d.Location))

	d.record(ctx, history.Decision{
		Action:  history.ActionBlocked,
		Address: sender,
		Subject: clean.Subject,
		At:      d.Now(),
	})

	return InboundResult{Verdict: VerdictBlocked, Email: clean, Alerted: alerted}
}
