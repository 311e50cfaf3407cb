// Package sanitize turns untrusted inbound email into text that is safe to
// hand to an agent.
//
// The pipeline is deterministic and never fails:
//
//  1. Pick a body: plain text if present, otherwise HTML reduced to text
//     (style and script blocks removed, tags stripped, a small fixed set of
//     entities decoded).
//  2. Remove unprintable control characters, keeping newline, tab and
//     carriage return.
//  3. Normalize CRLF and lone CR to LF.
//  4. Cut the body to a byte cap without splitting a UTF-8 code point and
//     append a truncation marker.
//
// Example usage:
//
//	clean := sanitize.Sanitize(sanitize.RawEmail{
//	    From:    "Alice <alice@example.com>",
//	    Subject: "Quarterly numbers",
//	    HTML:    "<p>See attached</p>",
//	})
//	fmt.Println(sanitize.WrapForAgent(clean))
package sanitize
