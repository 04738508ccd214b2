package tier

import (
	"fmt"
	"sort"
	"strings"
)

// Membership is the static assignment of resource names to tiers.
type Membership map[Tier][]string

// DefaultMembership returns the built-in resource tables.
func DefaultMembership() Membership {
	return Membership{
		Personal: {
			"agent_memory",
			"conversation_history",
			"personal_notes",
			"user_preferences",
		},
		Coordination: {
			"agent_messages",
			"coordination_events",
			"shared_context",
			"task_assignments",
		},
		Governance: {
			"access_policies",
			"audit_log",
			"governance_decisions",
			"system_config",
		},
	}
}

// Classifier maps resource names to tiers through a reverse index that is
// built once and never mutated, so it is safe for concurrent use.
type Classifier struct {
	index   map[string]Tier
	members map[Tier][]string
}

// NewClassifier builds a Classifier from m. Names must be non-empty and
// must not be assigned to more than one tier.
func NewClassifier(m Membership) (*Classifier, error) {
	if len(m) == 0 {
		return nil, NewInvalidMembershipError("membership table is empty")
	}

	c := &Classifier{
		index:   make(map[string]Tier),
		members: make(map[Tier][]string, len(m)),
	}

	for t, names := range m {
		if !t.IsValid() {
			return nil, NewInvalidMembershipError(fmt.Sprintf("undefined tier %d", int(t)))
		}
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, NewInvalidMembershipError(fmt.Sprintf("empty resource name in tier %s", t))
			}
			if owner, ok := c.index[name]; ok {
				if owner == t {
					return nil, NewInvalidMembershipError(
						fmt.Sprintf("resource %q listed twice in tier %s", name, t))
				}
				return nil, NewInvalidMembershipError(
					fmt.Sprintf("resource %q belongs to both %s and %s", name, owner, t))
			}
			c.index[name] = t
			c.members[t] = append(c.members[t], name)
		}
	}

	for t := range c.members {
		sort.Strings(c.members[t])
	}

	return c, nil
}

// Classify returns the tier that owns resource. Unknown names are always an
// error; there is no default tier.
func (c *Classifier) Classify(resource string) (Tier, error) {
	t, ok := c.index[resource]
	if !ok {
		return 0, NewUnknownResourceError(resource)
	}
	return t, nil
}

// Resources returns a sorted copy of the resource names owned by t.
func (c *Classifier) Resources(t Tier) []string {
	names := c.members[t]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Tiers returns the tiers that own at least one resource, in declaration order.
func (c *Classifier) Tiers() []Tier {
	var out []Tier
	for _, t := range All() {
		if len(c.members[t]) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the total number of classified resource names.
func (c *Classifier) Len() int {
	return len(c.index)
}
