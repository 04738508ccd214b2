package governance

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/zero-day-ai/memrouter/internal/tier"
)

// Payload is a caller-supplied write body.
type Payload map[string]any

// Reserved fields added by Enrich. Caller-supplied values for these keys are
// untrusted and are dropped by StripReserved.
const (
	FieldChecksum   = "_checksum"
	FieldTier       = "_tier"
	FieldIngestedAt = "_ingested_at"
)

var reservedFields = []string{FieldChecksum, FieldTier, FieldIngestedAt}

// IngestedAtLayout formats FieldIngestedAt. Timestamps are always UTC with nine
// fractional digits, so they sort lexically in chronological order.
const IngestedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// IsReserved reports whether key is one of the enrichment fields.
func IsReserved(key string) bool {
	for _, f := range reservedFields {
		if key == f {
			return true
		}
	}
	return false
}

// Canonicalize returns the canonical JSON encoding of p: sorted keys, no HTML
// escaping and no trailing newline. A nil payload encodes as "{}".
func Canonicalize(p Payload) ([]byte, error) {
	if p == nil {
		p = Payload{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(p)); err != nil {
		return nil, NewNotSerializableError(err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Checksum returns the hex SHA-256 of the canonical form of p.
func Checksum(p Payload) (string, error) {
	canonical, err := Canonicalize(p)
	if err != nil {
		return "", err
	}
	return checksumOf(canonical), nil
}

func checksumOf(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// StripReserved returns a shallow copy of p without any enrichment fields.
func StripReserved(p Payload) Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		if IsReserved(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Enrich returns a copy of p carrying the checksum, tier tag and ingestion
// timestamp, together with the checksum itself. The checksum covers p after
// reserved fields have been removed, never the enriched record.
func Enrich(p Payload, t tier.Tier, at time.Time) (Payload, string, error) {
	clean := StripReserved(p)

	sum, err := Checksum(clean)
	if err != nil {
		return nil, "", err
	}

	out := make(Payload, len(clean)+len(reservedFields))
	for k, v := range clean {
		out[k] = v
	}
	out[FieldChecksum] = sum
	out[FieldTier] = t.String()
	out[FieldIngestedAt] = at.UTC().Format(IngestedAtLayout)

	return out, sum, nil
}
