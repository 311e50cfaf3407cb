// Package resources provides MCP resources for the pending queue.
// Resources are read-only data sources that MCP clients can fetch:
//   - mailgate://pending lists held messages with shortened subjects
//   - mailgate://pending/{id} returns one held message with its full body
//
// Approving or rejecting a message is only possible through the tools.
package resources
