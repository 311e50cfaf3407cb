// Package pending stores outbound messages that are waiting for a human to
// approve or reject them.
//
// The store is a single JSON array on disk, read and rewritten whole on every
// mutation. Reads never fail: a missing or unparsable file is an empty queue.
// Writes go through a temp file and rename, and mutations hold an advisory
// lock so two concurrent CLI invocations cannot lose each other's updates.
package pending
