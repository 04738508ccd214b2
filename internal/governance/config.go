package governance

import (
	"fmt"
	"strings"
)

// DefaultMaxPayloadBytes is the default upper bound on a payload's canonical size.
const DefaultMaxPayloadBytes = 25000

// DefaultForbiddenTerms returns the built-in list of credential-like key fragments.
func DefaultForbiddenTerms() []string {
	return []string{
		"password",
		"secret",
		"token",
		"api_key",
		"credential",
		"auth",
		"private_key",
	}
}

// Config configures the gate's built-in rules.
type Config struct {
	ForbiddenTerms  []string `mapstructure:"forbidden_terms" yaml:"forbidden_terms" json:"forbidden_terms"`
	MaxPayloadBytes int      `mapstructure:"max_payload_bytes" yaml:"max_payload_bytes" json:"max_payload_bytes"`
}

// DefaultConfig returns a Config populated with the built-in defaults.
func DefaultConfig() Config {
	c := Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	if len(c.ForbiddenTerms) == 0 {
		c.ForbiddenTerms = DefaultForbiddenTerms()
	}
	if c.MaxPayloadBytes == 0 {
		c.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
}

// Validate performs validation on the Config.
func (c *Config) Validate() error {
	if c.MaxPayloadBytes <= 0 {
		return NewInvalidConfigError(
			fmt.Sprintf("max_payload_bytes must be greater than 0, got %d", c.MaxPayloadBytes))
	}
	for i, term := range c.ForbiddenTerms {
		if strings.TrimSpace(term) == "" {
			return NewInvalidConfigError(fmt.Sprintf("forbidden_terms[%d] is empty", i))
		}
	}
	return nil
}
