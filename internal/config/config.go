// Package config loads memrouter configuration from YAML with environment
// overrides and ${VAR} interpolation, and validates it before any backend is
// opened.
package config

import (
	"time"

	"github.com/zero-day-ai/memrouter/internal/database"
	"github.com/zero-day-ai/memrouter/internal/governance"
	"github.com/zero-day-ai/memrouter/internal/graph"
	"github.com/zero-day-ai/memrouter/internal/observability"
	"github.com/zero-day-ai/memrouter/internal/tier"
)

// Config is the root configuration for a memrouter process.
type Config struct {
	Tiers      TiersConfig                 `mapstructure:"tiers" yaml:"tiers" json:"tiers"`
	Governance governance.Config           `mapstructure:"governance" yaml:"governance" json:"governance"`
	Router     RouterConfig                `mapstructure:"router" yaml:"router" json:"router"`
	Primary    database.Config             `mapstructure:"primary" yaml:"primary" json:"primary"`
	Secondary  graph.Config                `mapstructure:"secondary" yaml:"secondary" json:"secondary"`
	Logging    observability.LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`
	Tracing    observability.TracingConfig `mapstructure:"tracing" yaml:"tracing" json:"tracing"`
	Metrics    observability.MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// TiersConfig lists the resources that belong to each tier. A resource may
// appear in at most one list.
type TiersConfig struct {
	Personal     []string `mapstructure:"personal" yaml:"personal" json:"personal" validate:"required,min=1,dive,required"`
	Coordination []string `mapstructure:"coordination" yaml:"coordination" json:"coordination" validate:"required,min=1,dive,required"`
	Governance   []string `mapstructure:"governance" yaml:"governance" json:"governance" validate:"required,min=1,dive,required"`
}

// Membership converts the lists into the classifier's input.
func (c TiersConfig) Membership() tier.Membership {
	return tier.Membership{
		tier.Personal:     c.Personal,
		tier.Coordination: c.Coordination,
		tier.Governance:   c.Governance,
	}
}

// RouterConfig bounds the router's calls.
type RouterConfig struct {
	OperationTimeout time.Duration `mapstructure:"operation_timeout" yaml:"operation_timeout" json:"operation_timeout" validate:"gt=0"`
	ProbeTimeout     time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout" json:"probe_timeout" validate:"gt=0"`
	// HealthInterval is used by long-running processes that poll backends.
	HealthInterval time.Duration `mapstructure:"health_interval" yaml:"health_interval" json:"health_interval" validate:"gt=0"`
}
