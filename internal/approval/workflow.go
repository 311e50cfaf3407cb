package approval

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/teemow/mailgate/internal/history"
	"github.com/teemow/mailgate/internal/instrumentation"
	"github.com/teemow/mailgate/internal/logging"
	"github.com/teemow/mailgate/internal/pending"
	"github.com/teemow/mailgate/internal/policy"
	"github.com/teemow/mailgate/internal/provider"
)

// SubjectPreviewRunes is how much of a subject ListPending shows.
const SubjectPreviewRunes = 40

// ApproveOptions controls Approve.
type ApproveOptions struct {
	// WidenAllowlist adds the recipient to the approved list after a
	// successful send.
	WidenAllowlist bool
}

// DefaultApproveOptions widens the allowlist.
func DefaultApproveOptions() ApproveOptions {
	return ApproveOptions{WidenAllowlist: true}
}

// ApproveResult describes a sent pending message.
type ApproveResult struct {
	MessageID string `json:"messageId"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	PendingID string `json:"pendingId"`
	Widened   bool   `json:"widened"`
}

// RejectResult describes a discarded pending message.
type RejectResult struct {
	PendingID string `json:"pendingId"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
}

// PendingView is the display form of a held message.
type PendingView struct {
	ID        string    `json:"id"`
	InboxID   string    `json:"inboxId"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"createdAt"`
}

// Workflow approves and rejects held messages.
type Workflow struct {
	deps Deps
}

// NewWorkflow creates a Workflow. Store, Sender and Policy must be set.
func NewWorkflow(deps Deps) (*Workflow, error) {
	if deps.Store == nil || deps.Sender == nil || deps.Policy == nil {
		return nil, errors.New("approval workflow requires store, sender and policy")
	}
	return &Workflow{deps: deps.withDefaults()}, nil
}

// Approve sends the pending message id, removes it from the store and, when
// opts.WidenAllowlist is set, adds its recipient to the approved list.
//
// Send is attempted exactly once. On send failure the message stays queued.
// A failure to widen the allowlist is logged and does not fail the call.
func (w *Workflow) Approve(ctx context.Context, id string, opts ApproveOptions) (ApproveResult, error) {
	d := w.deps
	logger := logging.WithOperation(d.Logger, "approve").With(logging.PendingID(id))

	ctx, span := instrumentation.StartSpan(ctx, "approval.approve",
		instrumentation.NewSpanAttributeBuilder().WithOperation("approve").WithPendingID(id).Build()...)
	defer span.End()

	res, err := w.approve(ctx, logger, id, opts)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		d.Metrics.RecordApproval(ctx, instrumentation.ActionApprove, string(KindOf(err)))
		return ApproveResult{}, err
	}
	instrumentation.SetSpanSuccess(span)
	d.Metrics.RecordApproval(ctx, instrumentation.ActionApprove, instrumentation.StatusSuccess)
	return res, nil
}

func (w *Workflow) approve(ctx context.Context, logger *slog.Logger, id string, opts ApproveOptions) (ApproveResult, error) {
	d := w.deps

	msg, ok := d.Store.FindByID(id)
	if !ok {
		return ApproveResult{}, &Error{Kind: KindNotFound, ID: id}
	}

	messageID, err := d.send(ctx, msg.InboxID, provider.Message{
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	}, id)
	if err != nil {
		logger.Warn("send failed, message stays pending", logging.Err(err))
		return ApproveResult{}, &Error{Kind: KindSendFailed, ID: id, Err: err}
	}

	if _, err := d.Store.Remove(id); err != nil {
		logger.Error("message sent but not removed from pending store",
			slog.String("message_id", messageID),
			logging.Err(err))
		return ApproveResult{}, &Error{Kind: KindStorageFailed, ID: id, Err: err}
	}

	res := ApproveResult{
		MessageID: messageID,
		To:        msg.To,
		Subject:   msg.Subject,
		PendingID: id,
	}

	if opts.WidenAllowlist {
		added, err := d.Policy.AddApprovedRecipient(msg.To)
		if err != nil {
			logger.Warn("failed to add approved recipient", logging.Domain(policy.ExtractEmail(msg.To)), logging.Err(err))
		}
		res.Widened = added
	}

	d.record(ctx, history.Decision{
		PendingID:         id,
		Action:            history.ActionSent,
		Address:           msg.To,
		Subject:           msg.Subject,
		ProviderMessageID: messageID,
		At:                d.Now(),
	})

	logger.Info("pending message approved and sent",
		logging.Provider(d.Sender.Name()),
		logging.UserHash(policy.ExtractEmail(msg.To)))
	return res, nil
}

// Reject removes the pending message id without sending it.
func (w *Workflow) Reject(ctx context.Context, id string) (RejectResult, error) {
	d := w.deps
	logger := d.Logger.With(logging.Operation("reject"), logging.PendingID(id))

	res, err := w.reject(ctx, id)
	if err != nil {
		logger.Warn("reject failed", logging.Err(err))
		d.Metrics.RecordApproval(ctx, instrumentation.ActionReject, string(KindOf(err)))
		return RejectResult{}, err
	}
	d.Metrics.RecordApproval(ctx, instrumentation.ActionReject, instrumentation.StatusSuccess)
	logger.Info("pending message rejected", logging.UserHash(policy.ExtractEmail(res.To)))
	return res, nil
}

func (w *Workflow) reject(ctx context.Context, id string) (RejectResult, error) {
	d := w.deps

	if _, ok := d.Store.FindByID(id); !ok {
		return RejectResult{}, &Error{Kind: KindNotFound, ID: id}
	}

	msg, err := d.Store.Remove(id)
	if err != nil {
		if errors.Is(err, pending.ErrNotFound) {
			return RejectResult{}, &Error{Kind: KindNotFound, ID: id}
		}
		return RejectResult{}, &Error{Kind: KindStorageFailed, ID: id, Err: err}
	}

	d.record(ctx, history.Decision{
		PendingID: id,
		Action:    history.ActionRejected,
		Address:   msg.To,
		Subject:   msg.Subject,
		At:        d.Now(),
	})

	return RejectResult{PendingID: id, To: msg.To, Subject: msg.Subject}, nil
}

// ListPending returns held messages in insertion order with subjects cut to
// SubjectPreviewRunes.
func (w *Workflow) ListPending() []PendingView {
	msgs := w.deps.Store.List()
	views := make([]PendingView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, PendingView{
			ID:        m.ID,
			InboxID:   m.InboxID,
			To:        m.To,
			Subject:   truncateRunes(m.Subject, SubjectPreviewRunes),
			CreatedAt: m.CreatedAt,
		})
	}
	return views
}

// Get returns the full pending message id.
func (w *Workflow) Get(id string) (pending.Message, error) {
	msg, ok := w.deps.Store.FindByID(id)
	if !ok {
		return pending.Message{}, &Error{Kind: KindNotFound, ID: id}
	}
	return msg, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
