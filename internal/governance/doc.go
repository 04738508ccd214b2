// Package governance implements the pre-write content gate for the memory router.
//
// Every payload headed for a backend passes through a Gate, which applies an
// ordered list of rules and stops at the first rejection:
//
//   - forbidden-key: no key, at any nesting depth, may contain a forbidden
//     term such as "password" or "api_key" (case-insensitive substring match)
//   - size: the canonical JSON encoding must not exceed the configured limit
//   - serializable: the payload must have a canonical JSON encoding at all
//
// The gate never mutates a payload. Enrichment (checksum, tier tag and
// ingestion timestamp) is a separate step performed by Enrich after a
// payload has been allowed, so the checksum is always computed over the
// exact bytes that were validated.
//
// # Canonical form
//
// Canonicalize encodes with sorted map keys, no HTML escaping and no
// trailing newline. Two payloads with the same keys and values produce the
// same bytes regardless of insertion order, which makes Checksum stable.
package governance
