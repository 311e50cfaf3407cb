// Package output renders command results for humans and agents.
//
// Two formats are supported. FormatJSON prints indented JSON objects.
// FormatCompact prints one line per result in a token-lean notation:
//
//	message_sent:messageId:abc|to:jane@example.com|subject:Hello
//	pending[2]{id|to|subject|created}:
//	9b1f...|jane@example.com|Hello|2026-03-04T21:00:00.000Z
//
// Errors are printed as error:<kind>:<message> in compact mode and as
// {"success": false, "error": {...}} in JSON mode.
package output
