package governance

import "github.com/zero-day-ai/memrouter/internal/types"

// ValidationResult is the outcome of running a payload through the gate.
type ValidationResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	// Rule names the rule that rejected the payload.
	Rule string          `json:"rule,omitempty"`
	Code types.ErrorCode `json:"code,omitempty"`
}

// Err returns the rejection as an error, nil for an allowed result. The code
// is PAYLOAD_NOT_SERIALIZABLE for payloads without a canonical form and
// GOVERNANCE_REJECTED otherwise.
func (r ValidationResult) Err() error {
	if r.Allowed {
		return nil
	}
	code := r.Code
	if code == "" {
		code = ErrCodeGovernanceRejected
	}
	return types.NewError(code, r.Rule+": "+r.Reason)
}

// Gate runs an ordered list of rules over payloads. It holds no mutable state
// and is safe for concurrent use.
type Gate struct {
	rules []Rule
}

// NewGate creates a gate with the built-in rules in their fixed order:
// forbidden-key, size, serializable.
func NewGate(cfg Config) (*Gate, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return NewGateWithRules(
		NewForbiddenKeyRule(cfg.ForbiddenTerms),
		NewSizeRule(cfg.MaxPayloadBytes),
		SerializableRule{},
	), nil
}

// NewGateWithRules creates a gate over an explicit rule list.
func NewGateWithRules(rules ...Rule) *Gate {
	return &Gate{rules: rules}
}

// Validate applies each rule in order; the first rejection wins. The payload
// is never modified.
func (g *Gate) Validate(p Payload) ValidationResult {
	c := NewCandidate(p)
	for _, rule := range g.rules {
		d := rule.Check(c)
		if !d.Allowed {
			code := d.Code
			if code == "" {
				code = ErrCodeGovernanceRejected
			}
			return ValidationResult{
				Allowed: false,
				Reason:  d.Reason,
				Rule:    rule.Name(),
				Code:    code,
			}
		}
	}
	return ValidationResult{Allowed: true}
}

// Rules returns a copy of the gate's rules
func (g *Gate) Rules() []Rule {
	out := make([]Rule, len(g.rules))
	copy(out, g.rules)
	return out
}
