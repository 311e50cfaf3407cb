package policy

import (
	"fmt"
	"log/slog"

	"github.com/teemow/mailgate/internal/logging"
)

// Evaluator answers trust questions against a Source. Every call reloads
// the config.
type Evaluator struct {
	source Source
	logger *slog.Logger
}

// NewEvaluator returns an Evaluator reading from source. A nil logger falls
// back to slog.Default().
func NewEvaluator(source Source, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		source: source,
		logger: logger.With(logging.Service("policy")),
	}
}

// Config returns the current config, nil when absent. An unreadable config
// is returned as an error.
func (e *Evaluator) Config() (*SecurityConfig, error) {
	return e.source.Load()
}

// IsSenderAllowed reports whether an inbound sender may reach the agent.
// An unreadable config denies.
func (e *Evaluator) IsSenderAllowed(sender string) bool {
	cfg, err := e.source.Load()
	if err != nil {
		e.logger.Warn("security config unreadable, denying sender",
			logging.Operation("check_sender"),
			logging.Domain(ExtractEmail(sender)),
			logging.Err(err))
		return false
	}
	return cfg.SenderAllowed(sender)
}

// IsRecipientApproved reports whether outbound mail to recipient needs no
// approval. An unreadable config sends everything to the approval queue.
func (e *Evaluator) IsRecipientApproved(recipient string) bool {
	cfg, err := e.source.Load()
	if err != nil {
		e.logger.Warn("security config unreadable, holding recipient for approval",
			logging.Operation("check_recipient"),
			logging.Domain(ExtractEmail(recipient)),
			logging.Err(err))
		return false
	}
	return cfg.RecipientApproved(recipient)
}

// AddApprovedRecipient adds recipient to approvedRecipients and persists the
// config. It reports false without writing when the address is already
// listed, or when no config exists.
func (e *Evaluator) AddApprovedRecipient(recipient string) (bool, error) {
	var added bool
	update := func() error {
		cfg, err := e.source.Load()
		if err != nil {
			return err
		}
		if cfg == nil {
			// An absent config stays absent and fully open.
			e.logger.Debug("no security config, allowlist unchanged",
				logging.Operation("add_approved_recipient"))
			return nil
		}

		var email string
		email, added = cfg.addApprovedRecipient(recipient)
		if !added {
			return nil
		}
		if err := e.source.Save(cfg); err != nil {
			return err
		}
		e.logger.Info("recipient added to allowlist",
			logging.Operation("add_approved_recipient"),
			logging.UserHash(email))
		return nil
	}

	var err error
	if locker, ok := e.source.(Locker); ok {
		err = locker.WithLock(update)
	} else {
		err = update()
	}
	if err != nil {
		return false, fmt.Errorf("add approved recipient: %w", err)
	}
	return added, nil
}

// AlertTarget returns the blocked-sender alert destination.
func (e *Evaluator) AlertTarget() (Target, bool) {
	cfg, err := e.source.Load()
	if err != nil {
		e.logger.Warn("security config unreadable, no alert target", logging.Err(err))
		return Target{}, false
	}
	return cfg.AlertTarget()
}

// ApprovalTarget returns the pending-approval notice destination.
func (e *Evaluator) ApprovalTarget() (Target, bool) {
	cfg, err := e.source.Load()
	if err != nil {
		e.logger.Warn("security config unreadable, no approval target", logging.Err(err))
		return Target{}, false
	}
	return cfg.ApprovalTarget()
}
