package governance

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/zero-day-ai/memrouter/internal/types"
)

// Candidate is a payload under evaluation. The canonical encoding is computed
// at most once and shared between rules.
type Candidate struct {
	payload   Payload
	canonical []byte
	err       error
	encoded   bool
}

// NewCandidate wraps p for evaluation.
func NewCandidate(p Payload) *Candidate {
	return &Candidate{payload: p}
}

// Payload returns the payload being evaluated.
func (c *Candidate) Payload() Payload {
	return c.payload
}

// Canonical returns the canonical encoding of the payload, or the error that
// prevented it.
func (c *Candidate) Canonical() ([]byte, error) {
	if !c.encoded {
		c.canonical, c.err = Canonicalize(c.payload)
		c.encoded = true
	}
	return c.canonical, c.err
}

// Decision is the outcome of a single rule.
type Decision struct {
	Allowed bool
	Reason  string
	// Code overrides GOVERNANCE_REJECTED for a rejection.
	Code types.ErrorCode
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Reject returns a rejecting decision with the given reason.
func Reject(reason string) Decision {
	return Decision{Reason: reason}
}

// Rule is a single governance check.
type Rule interface {
	Name() string
	Check(c *Candidate) Decision
}

// ForbiddenKeyRule rejects payloads whose keys contain a forbidden term.
type ForbiddenKeyRule struct {
	terms []string
}

// NewForbiddenKeyRule creates a rule over the given terms. Matching is
// case-insensitive.
func NewForbiddenKeyRule(terms []string) *ForbiddenKeyRule {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(t)))
	}
	return &ForbiddenKeyRule{terms: lowered}
}

// Name returns the name of this rule
func (r *ForbiddenKeyRule) Name() string {
	return "forbidden-key"
}

// Check walks every key in the payload, including keys of nested objects and
// objects inside arrays. Keys are visited in sorted order so the reported path
// is stable. Struct values are not scanned: payloads are decoded JSON, where
// objects arrive as maps.
func (r *ForbiddenKeyRule) Check(c *Candidate) Decision {
	if path, term, found := r.scan(reflect.ValueOf(map[string]any(c.payload)), ""); found {
		return Reject(fmt.Sprintf("key %q contains forbidden term %q", path, term))
	}
	return Allow()
}

func (r *ForbiddenKeyRule) scan(v reflect.Value, prefix string) (string, string, bool) {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", "", false
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return "", "", false
		}
		keys := v.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(a.String(), b.String())
		})
		for _, k := range keys {
			key := k.String()
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			if term, ok := r.match(key); ok {
				return path, term, true
			}
			if p, term, ok := r.scan(v.MapIndex(k), path); ok {
				return p, term, true
			}
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return "", "", false
		}
		for i := 0; i < v.Len(); i++ {
			if p, term, ok := r.scan(v.Index(i), fmt.Sprintf("%s[%d]", prefix, i)); ok {
				return p, term, true
			}
		}
	}
	return "", "", false
}

func (r *ForbiddenKeyRule) match(key string) (string, bool) {
	lower := strings.ToLower(key)
	for _, term := range r.terms {
		if term != "" && strings.Contains(lower, term) {
			return term, true
		}
	}
	return "", false
}

// SizeRule rejects payloads whose canonical encoding exceeds a byte limit.
type SizeRule struct {
	max int
}

// NewSizeRule creates a size rule with an inclusive byte limit.
func NewSizeRule(maxBytes int) *SizeRule {
	return &SizeRule{max: maxBytes}
}

// Name returns the name of this rule
func (r *SizeRule) Name() string {
	return "size"
}

// Check allows payloads up to and including the limit. Payloads that cannot
// be encoded are left for SerializableRule to report.
func (r *SizeRule) Check(c *Candidate) Decision {
	canonical, err := c.Canonical()
	if err != nil {
		return Allow()
	}
	if len(canonical) > r.max {
		return Reject(fmt.Sprintf("payload is %d bytes, limit is %d", len(canonical), r.max))
	}
	return Allow()
}

// SerializableRule rejects payloads with no canonical JSON form.
type SerializableRule struct{}

// Name returns the name of this rule
func (SerializableRule) Name() string {
	return "serializable"
}

// Check reports the encoding error, if any.
func (SerializableRule) Check(c *Candidate) Decision {
	if _, err := c.Canonical(); err != nil {
		return Decision{Reason: err.Error(), Code: ErrCodeNotSerializable}
	}
	return Allow()
}
