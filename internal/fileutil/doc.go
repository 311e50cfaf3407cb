// Package fileutil holds the small file primitives shared by the pending
// store and the security config: atomic whole-file replacement and an
// advisory lock around read-modify-write cycles.
package fileutil
