// Package approval implements the human-in-the-loop flows of the gate.
//
// Gate.Submit decides whether an outbound message goes out immediately or is
// held in the pending store. Workflow approves (send, dequeue, optionally
// widen the recipient allowlist) or rejects (dequeue only) held messages.
// Screen checks inbound senders against the trust policy and raises alerts
// for blocked ones.
//
// A pending message is sent at most once per Approve call. If the send fails
// the message stays queued and unchanged.
package approval
