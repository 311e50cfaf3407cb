// Package gate_tools exposes the mailgate gate over MCP.
//
// Always available:
//   - mailgate_send_email: submit an outbound message; approved recipients
//     are sent immediately, everyone else is held for a human
//   - mailgate_list_pending: list held messages
//   - mailgate_screen_inbound: sanitize an inbound message and check its
//     sender before an agent reads it
//
// Registered only when the server is not read-only (--yolo):
//   - mailgate_approve: send held messages and widen the allowlist
//   - mailgate_reject: discard held messages
//
// Results use the compact notation of the CLI, for example
// message_queued:pendingId:...|to:...|subject:...
package gate_tools
