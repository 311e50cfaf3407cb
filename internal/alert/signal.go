package alert

import (
	"context"
	"strings"
)

// GroupPrefix marks a Signal target as a group name rather than a number.
const GroupPrefix = "group:"

// SignalSender is the part of signal.Client the notifier needs.
type SignalSender interface {
	SendMessage(ctx context.Context, recipient, message string) error
	SendGroupMessage(ctx context.Context, groupName, message string) error
}

// SignalNotifier delivers notices through signal-cli. A target of the form
// "group:<name>" goes to that group, anything else is a phone number.
type SignalNotifier struct {
	client SignalSender
}

// NewSignalNotifier wraps client.
func NewSignalNotifier(client SignalSender) *SignalNotifier {
	return &SignalNotifier{client: client}
}

// Notify implements Notifier.
func (n *SignalNotifier) Notify(ctx context.Context, target, message string) error {
	if group, ok := strings.CutPrefix(target, GroupPrefix); ok {
		return n.client.SendGroupMessage(ctx, group, message)
	}
	return n.client.SendMessage(ctx, target, message)
}

// Name implements Notifier.
func (n *SignalNotifier) Name() string {
	return "signal"
}
