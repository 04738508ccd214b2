package config

import (
	"path/filepath"
	"time"

	"github.com/zero-day-ai/memrouter/internal/database"
	"github.com/zero-day-ai/memrouter/internal/governance"
	"github.com/zero-day-ai/memrouter/internal/graph"
	"github.com/zero-day-ai/memrouter/internal/observability"
	"github.com/zero-day-ai/memrouter/internal/tier"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	homeDir := DefaultHomeDir()
	membership := tier.DefaultMembership()

	return &Config{
		Tiers: TiersConfig{
			Personal:     membership[tier.Personal],
			Coordination: membership[tier.Coordination],
			Governance:   membership[tier.Governance],
		},
		Governance: governance.DefaultConfig(),
		Router: RouterConfig{
			OperationTimeout: 10 * time.Second,
			ProbeTimeout:     5 * time.Second,
			HealthInterval:   10 * time.Second,
		},
		Primary:   database.DefaultConfig(filepath.Join(homeDir, "memrouter.db")),
		Secondary: graph.DefaultConfig(),
		Logging: observability.LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Tracing: observability.TracingConfig{
			Enabled:     false,
			Provider:    "otlp",
			ServiceName: "memrouter",
			SampleRate:  1.0,
		},
		Metrics: observability.MetricsConfig{
			Enabled:        false,
			Provider:       "prometheus",
			ListenAddress:  ":9464",
			ExportInterval: 30 * time.Second,
		},
	}
}
