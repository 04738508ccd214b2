package observability

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// LoggingConfig selects the slog handler and its destination.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level" json:"level"`
	Format string `yaml:"format" mapstructure:"format" json:"format"`
	// Output is "stdout", "stderr" or an absolute file path.
	Output string `yaml:"output" mapstructure:"output" json:"output"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Provider     string  `yaml:"provider" mapstructure:"provider" json:"provider"`
	Endpoint     string  `yaml:"endpoint" mapstructure:"endpoint" json:"endpoint"`
	ServiceName  string  `yaml:"service_name" mapstructure:"service_name" json:"service_name"`
	SampleRate   float64 `yaml:"sample_rate" mapstructure:"sample_rate" json:"sample_rate"`
	TLSCertFile  string  `yaml:"tls_cert_file" mapstructure:"tls_cert_file" json:"tls_cert_file"`
	InsecureMode bool    `yaml:"insecure_mode" mapstructure:"insecure_mode" json:"insecure_mode"` // plaintext gRPC
}

// MetricsConfig configures metric export. The prometheus provider exposes a
// scrape handler; the otlp provider pushes to Endpoint every ExportInterval.
type MetricsConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Provider       string        `yaml:"provider" mapstructure:"provider" json:"provider"`
	ListenAddress  string        `yaml:"listen_address" mapstructure:"listen_address" json:"listen_address"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint" json:"endpoint"`
	ExportInterval time.Duration `yaml:"export_interval" mapstructure:"export_interval" json:"export_interval"`
	InsecureMode   bool          `yaml:"insecure_mode" mapstructure:"insecure_mode" json:"insecure_mode"`
}

var (
	validLevels           = []string{"debug", "info", "warn", "error"}
	validFormats          = []string{"json", "text"}
	validTracingProviders = []string{"otlp", "noop"}
	validMetricsProviders = []string{"prometheus", "otlp"}
)

func oneOf(value string, allowed []string) bool {
	return slices.Contains(allowed, strings.ToLower(value))
}

// Validate checks level, format and output.
func (c *LoggingConfig) Validate() error {
	if !oneOf(c.Level, validLevels) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Level, strings.Join(validLevels, ", "))
	}
	if !oneOf(c.Format, validFormats) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.Format, strings.Join(validFormats, ", "))
	}
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	output := strings.ToLower(c.Output)
	if output != "stdout" && output != "stderr" && !strings.HasPrefix(c.Output, "/") {
		return fmt.Errorf("invalid log output: %s (must be 'stdout', 'stderr', or an absolute file path)", c.Output)
	}
	return nil
}

// Validate is a no-op when tracing is disabled.
func (c *TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !oneOf(c.Provider, validTracingProviders) {
		return fmt.Errorf("invalid tracing provider: %s (must be one of: %s)", c.Provider, strings.Join(validTracingProviders, ", "))
	}
	if c.SampleRate < 0.0 || c.SampleRate > 1.0 {
		return fmt.Errorf("invalid sample rate: %f (must be between 0.0 and 1.0)", c.SampleRate)
	}
	if strings.ToLower(c.Provider) == "noop" {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when tracing is enabled")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required when tracing is enabled")
	}
	return nil
}

// Validate is a no-op when metrics are disabled.
func (c *MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !oneOf(c.Provider, validMetricsProviders) {
		return fmt.Errorf("invalid metrics provider: %s (must be one of: %s)", c.Provider, strings.Join(validMetricsProviders, ", "))
	}
	switch strings.ToLower(c.Provider) {
	case "prometheus":
		if c.ListenAddress == "" {
			return fmt.Errorf("listen address is required for the prometheus provider")
		}
	case "otlp":
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint is required for the otlp provider")
		}
		if c.ExportInterval < 0 {
			return fmt.Errorf("invalid export interval: %s", c.ExportInterval)
		}
	}
	return nil
}
