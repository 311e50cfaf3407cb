package approval

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/mailgate/internal/history"
	"github.com/teemow/mailgate/internal/instrumentation"
	"github.com/teemow/mailgate/internal/logging"
	"github.com/teemow/mailgate/internal/pending"
	"github.com/teemow/mailgate/internal/policy"
	"github.com/teemow/mailgate/internal/provider"
	"github.com/teemow/mailgate/internal/sanitize"
)

// Store is the pending-message store.
type Store interface {
	List() []pending.Message
	FindByID(id string) (pending.Message, bool)
	Enqueue(msg pending.Message) error
	Remove(id string) (pending.Message, error)
}

// Policy is the trust policy evaluator.
type Policy interface {
	IsSenderAllowed(sender string) bool
	IsRecipientApproved(recipient string) bool
	AddApprovedRecipient(recipient string) (bool, error)
	AlertTarget() (policy.Target, bool)
	ApprovalTarget() (policy.Target, bool)
}

// Alerter delivers best-effort notices. *alert.Dispatcher implements it.
type Alerter interface {
	Dispatch(ctx context.Context, channel, target, message string) bool
}

// Deps are the collaborators shared by Gate, Workflow and Screen.
// Store, Sender and Policy are required, the rest are optional.
type Deps struct {
	Store   Store
	Sender  provider.Sender
	Policy  Policy
	Alerts  Alerter
	History history.Recorder
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger

	// Sanitizer caps inbound bodies. The zero value uses the default cap.
	Sanitizer sanitize.Sanitizer

	// Location renders notice timestamps. Nil means UTC.
	Location *time.Location

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.History == nil {
		d.History = history.Nop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func (d Deps) record(ctx context.Context, dec history.Decision) {
	if err := d.History.Record(ctx, dec); err != nil {
		d.Logger.Warn("failed to record decision",
			slog.String("action", string(dec.Action)),
			logging.PendingID(dec.PendingID),
			logging.Err(err))
	}
}

func (d Deps) notify(ctx context.Context, target policy.Target, ok bool, message string) bool {
	if !ok || d.Alerts == nil {
		return false
	}
	return d.Alerts.Dispatch(ctx, target.Channel, target.To, message)
}

// send calls the provider once inside a send span and records its latency.
func (d Deps) send(ctx context.Context, inboxID string, msg provider.Message, pendingID string) (string, error) {
	ctx, span := instrumentation.StartSendSpan(ctx, d.Sender.Name(),
		instrumentation.NewSpanAttributeBuilder().
			WithPendingID(pendingID).
			WithRecipient(policy.ExtractEmail(msg.To)).
			Build()...)
	defer span.End()

	start := time.Now()
	id, err := d.Sender.Send(ctx, inboxID, msg)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	d.Metrics.RecordSend(ctx, d.Sender.Name(), status, time.Since(start))
	return id, err
}
