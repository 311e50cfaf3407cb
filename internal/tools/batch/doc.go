// Package batch runs a gate operation over several pending ids and
// reports per-id results, so one failed id does not hide the others.
package batch
