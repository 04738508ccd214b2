// Package tier classifies logical memory resources into the fixed set of
// data tiers that decide which backend is authoritative for a write.
package tier

import (
	"fmt"
	"strings"
)

// Tier is the closed set of data tiers a resource can belong to.
type Tier int

const (
	// Personal holds per-agent critical data. The primary store is authoritative.
	Personal Tier = iota + 1
	// Coordination holds multi-agent coordination data. The graph store is authoritative.
	Coordination
	// Governance holds system governance data that must land in both stores.
	Governance
)

// All returns every defined tier in declaration order.
func All() []Tier {
	return []Tier{Personal, Coordination, Governance}
}

// String returns the configuration name of the tier.
func (t Tier) String() string {
	switch t {
	case Personal:
		return "personal"
	case Coordination:
		return "coordination"
	case Governance:
		return "governance"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// IsValid reports whether t is one of the defined tiers.
func (t Tier) IsValid() bool {
	return t >= Personal && t <= Governance
}

// MarshalText implements encoding.TextMarshaler so tiers serialize by name.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier parses a tier name case-insensitively.
func ParseTier(name string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "personal":
		return Personal, nil
	case "coordination":
		return Coordination, nil
	case "governance":
		return Governance, nil
	default:
		return 0, fmt.Errorf("unknown tier %q", name)
	}
}
