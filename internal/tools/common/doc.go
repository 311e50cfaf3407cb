// Package common provides shared helpers for the MCP tool packages:
// argument parsing, error results and the instrumentation wrapper that
// records metrics, spans and audit lines for every tool call.
package common
