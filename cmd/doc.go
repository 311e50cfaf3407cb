// Package cmd implements the command-line interface for mailgate.
//
// This package provides the following commands:
//   - send: Submit a message through the gate
//   - pending: List, approve or reject held messages and show decision history
//   - inbound: Screen an inbound message before an agent reads it
//   - policy: Check senders and recipients against the security config
//   - auth: Authorize a Gmail account for the gmail provider
//   - serve: Start the MCP server to provide tools for AI assistants
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// Every command prints compact single-line output by default, or JSON with
// --format json. Failures are written to stderr as error:<kind>:<message>
// and exit with status 1.
package cmd
