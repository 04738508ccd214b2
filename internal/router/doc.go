// Package router directs memory writes and reads to the primary
// (consistency-oriented) and secondary (graph-oriented) stores according to
// the tier of the resource being accessed.
//
// # Write path
//
// Write classifies the resource, runs the payload through the governance
// gate, enriches it with a checksum, tier tag and ingestion timestamp, and
// then executes the tier policy while holding the per-resource lock:
//
//   - personal: primary is authoritative; secondary gets a best-effort mirror
//     if it is currently alive
//   - coordination: secondary is authoritative; primary gets the mirror
//   - governance: both stores are required; one success and one failure is
//     reported as a partial tier failure with no compensation
//
// Mirror writes run after the authoritative write in the same call, never
// concurrently, and their outcome is recorded in the result without affecting
// its success.
//
// # Read path
//
// Reads are served only by the primary store and take no lock. If the
// primary is not alive a single reconnect probe is attempted before giving up.
//
// # Failures
//
// Nothing in this package panics or returns bare errors for expected
// failures. Every outcome is a WriteResult or ReadResult carrying a code,
// a reason and per-backend sub-results; Err converts a failed result into
// a *types.Error for callers that prefer error values.
package router
