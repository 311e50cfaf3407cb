// Package alert delivers short human-facing notices: blocked inbound senders
// and outbound messages waiting for approval.
//
// Delivery is best-effort. A Dispatcher routes a notice to the Notifier
// registered for the configured channel, bounds the call with a timeout and
// logs any failure. Callers never see an error from alerting.
//
// Notifiers:
//   - signal: sends through signal-cli (see internal/signal)
//   - command: runs an external command built from a template
//   - log: writes the notice to the structured log
package alert
