package approval

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/mailgate/internal/alert"
	"github.com/teemow/mailgate/internal/instrumentation"
	"github.com/teemow/mailgate/internal/logging"
	"github.com/teemow/mailgate/internal/pending"
	"github.com/teemow/mailgate/internal/policy"
	"github.com/teemow/mailgate/internal/provider"
)

// Outcome of Gate.Submit.
type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeQueued Outcome = "queued"
)

// OutboundMessage is what an agent asks the gate to send.
type OutboundMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// SubmitResult reports what happened to a submitted message.
type SubmitResult struct {
	Outcome   Outcome `json:"outcome"`
	MessageID string  `json:"messageId,omitempty"`
	PendingID string  `json:"pendingId,omitempty"`
	To        string  `json:"to"`
	Subject   string  `json:"subject"`
	Notified  bool    `json:"notified,omitempty"`
}

// Gate is the outbound entry point.
type Gate struct {
	deps Deps
}

// NewGate creates a Gate. Store, Sender and Policy must be set.
func NewGate(deps Deps) (*Gate, error) {
	if deps.Store == nil || deps.Sender == nil || deps.Policy == nil {
		return nil, errors.New("gate requires store, sender and policy")
	}
	return &Gate{deps: deps.withDefaults()}, nil
}

func (m OutboundMessage) validate() error {
	var missing []string
	if strings.TrimSpace(m.To) == "" {
		missing = append(missing, "to")
	}
	if strings.TrimSpace(m.Subject) == "" {
		missing = append(missing, "subject")
	}
	if m.Text == "" {
		missing = append(missing, "text")
	}
	if len(missing) > 0 {
		return &Error{Kind: KindInvalidInput, Err: errors.New("missing " + strings.Join(missing, ", "))}
	}
	return nil
}

// Submit sends msg now when the recipient is approved. Otherwise it queues
// msg under a new id and notifies the outbound approval channel.
func (g *Gate) Submit(ctx context.Context, inboxID string, msg OutboundMessage) (SubmitResult, error) {
	d := g.deps
	if err := msg.validate(); err != nil {
		d.Metrics.RecordOutbound(ctx, instrumentation.ResultError, "")
		return SubmitResult{}, err
	}

	logger := d.Logger.With(logging.Operation("submit"), logging.Inbox(inboxID))
	recipient := policy.ExtractEmail(msg.To)
	res := SubmitResult{To: msg.To, Subject: msg.Subject}

	if d.Policy.IsRecipientApproved(msg.To) {
		id, err := d.send(ctx, inboxID, provider.Message{
			To:      msg.To,
			Subject: msg.Subject,
			Text:    msg.Text,
			HTML:    msg.HTML,
		}, "")
		if err != nil {
			d.Metrics.RecordOutbound(ctx, instrumentation.ResultError, recipient)
			logger.Warn("send failed", logging.Domain(recipient), logging.Err(err))
			return SubmitResult{}, &Error{Kind: KindSendFailed, Err: err}
		}
		d.Metrics.RecordOutbound(ctx, instrumentation.ResultSent, recipient)
		logger.Info("message sent to approved recipient", logging.UserHash(recipient))
		res.Outcome = OutcomeSent
		res.MessageID = id
		return res, nil
	}

	held := pending.Message{
		ID:        uuid.NewString(),
		InboxID:   inboxID,
		To:        msg.To,
		Subject:   msg.Subject,
		Text:      msg.Text,
		HTML:      msg.HTML,
		CreatedAt: d.Now().UTC().Truncate(time.Millisecond),
	}
	if err := d.Store.Enqueue(held); err != nil {
		d.Metrics.RecordOutbound(ctx, instrumentation.ResultError, recipient)
		return SubmitResult{}, &Error{Kind: KindStorageFailed, ID: held.ID, Err: err}
	}
	d.Metrics.RecordOutbound(ctx, instrumentation.ResultQueued, recipient)
	logger.Info("message held for approval", logging.PendingID(held.ID), logging.UserHash(recipient))

	target, ok := d.Policy.ApprovalTarget()
	res.Notified = d.notify(ctx, target, ok, alert.PendingApprovalMessage(held, d.Location))
	res.Outcome = OutcomeQueued
	res.PendingID = held.ID
	return res, nil
}
