// Package server provides the MCP server context and the HTTP side
// channels of the mailgate server.
//
// ServerContext carries the gate services (outbound gate, approval
// workflow, inbound screen) together with the metrics recorder and audit
// logger that tool handlers report to.
//
// MetricsServer exposes the Prometheus registry of an instrumentation
// Provider on a dedicated port, separate from the MCP transport.
// HealthChecker serves liveness and readiness probes for the
// streamable-http transport.
package server
