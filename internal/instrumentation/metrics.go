package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod   = "method"
	attrPath     = "path"
	attrStatus   = "status"
	attrResult   = "result"
	attrAction   = "action"
	attrVerdict  = "verdict"
	attrChannel  = "channel"
	attrProvider = "provider"
	attrTool     = "tool"
	attrDomain   = "recipient_domain"
)

// Metrics provides methods for recording observability metrics.
// A zero Metrics, or a nil *Metrics, records nothing.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Gate metrics
	outboundTotal  metric.Int64Counter
	approvalsTotal metric.Int64Counter
	inboundTotal   metric.Int64Counter
	alertsTotal    metric.Int64Counter
	sendDuration   metric.Float64Histogram

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.outboundTotal, err = meter.Int64Counter(
		"mailgate_outbound_total",
		metric.WithDescription("Outbound messages submitted to the gate, by result"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailgate_outbound_total counter: %w", err)
	}

	m.approvalsTotal, err = meter.Int64Counter(
		"mailgate_approvals_total",
		metric.WithDescription("Approve and reject decisions on pending messages"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailgate_approvals_total counter: %w", err)
	}

	m.inboundTotal, err = meter.Int64Counter(
		"mailgate_inbound_total",
		metric.WithDescription("Inbound messages screened, by verdict"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailgate_inbound_total counter: %w", err)
	}

	m.alertsTotal, err = meter.Int64Counter(
		"mailgate_alerts_total",
		metric.WithDescription("Alert dispatch attempts, by channel and status"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailgate_alerts_total counter: %w", err)
	}

	m.sendDuration, err = meter.Float64Histogram(
		"mailgate_send_duration_seconds",
		metric.WithDescription("Send provider call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailgate_send_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordOutbound records the gate's decision for a submitted message.
// Result is one of ResultSent, ResultQueued, ResultError. The recipient
// domain is only attached when detailed labels are enabled.
func (m *Metrics) RecordOutbound(ctx context.Context, result, recipient string) {
	if m == nil || m.outboundTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrResult, result),
	}
	if m.detailedLabels && recipient != "" {
		attrs = append(attrs, attribute.String(attrDomain, ExtractUserDomain(recipient)))
	}

	m.outboundTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordApproval records an approve or reject on a pending message.
//
// Parameters:
//   - action: ActionApprove or ActionReject
//   - status: StatusSuccess or an error kind (not_found, send_failed, storage_failed)
func (m *Metrics) RecordApproval(ctx context.Context, action, status string) {
	if m == nil || m.approvalsTotal == nil {
		return // Instrumentation not initialized
	}

	m.approvalsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrAction, action),
		attribute.String(attrStatus, status),
	))
}

// RecordInbound records the screening verdict for an inbound message.
func (m *Metrics) RecordInbound(ctx context.Context, verdict string) {
	if m == nil || m.inboundTotal == nil {
		return // Instrumentation not initialized
	}

	m.inboundTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrVerdict, verdict),
	))
}

// RecordAlert records an alert dispatch attempt.
func (m *Metrics) RecordAlert(ctx context.Context, channel, status string) {
	if m == nil || m.alertsTotal == nil {
		return // Instrumentation not initialized
	}

	m.alertsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrChannel, channel),
		attribute.String(attrStatus, status),
	))
}

// RecordSend records a call to a send provider.
func (m *Metrics) RecordSend(ctx context.Context, provider, status string, duration time.Duration) {
	if m == nil || m.sendDuration == nil {
		return // Instrumentation not initialized
	}

	m.sendDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrProvider, provider),
		attribute.String(attrStatus, status),
	))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
//
// Parameters:
//   - toolName: Name of the MCP tool (e.g., "mailgate_send_email")
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the tool execution
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
