// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for mailgate.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Gate Metrics:
//   - mailgate_outbound_total: Outbound submissions by result (sent, queued, error)
//   - mailgate_approvals_total: Approve and reject calls by action and status
//   - mailgate_inbound_total: Screened inbound messages by verdict
//   - mailgate_alerts_total: Alert dispatches by channel and status
//   - mailgate_send_duration_seconds: Send provider latency by provider and status
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// Recipient addresses never appear as labels. With DetailedLabels the
// recipient domain is attached to mailgate_outbound_total.
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and send provider
// calls (send.<provider>).
//
// # Configuration
//
// Each variable may also be given with a MAILGATE_ prefix, which wins.
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: mailgate)
//   - METRICS_DETAILED_LABELS: add the recipient domain label (default: false)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII: tool audit trail
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	m := provider.Metrics()
//	m.RecordOutbound(ctx, instrumentation.ResultQueued, recipient)
//	m.RecordSend(ctx, "ses", instrumentation.StatusSuccess, time.Since(start))
package instrumentation
