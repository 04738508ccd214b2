package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/memrouter/internal/governance"
	"github.com/zero-day-ai/memrouter/internal/tier"
	"github.com/zero-day-ai/memrouter/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv(HomeEnv, "/srv/memrouter")
	cfg := DefaultConfig()

	assert.Equal(t, "/srv/memrouter/memrouter.db", cfg.Primary.Path)
	assert.Equal(t, "bolt://localhost:7687", cfg.Secondary.URI)
	assert.Equal(t, 10*time.Second, cfg.Router.OperationTimeout)
	assert.Equal(t, 5*time.Second, cfg.Router.ProbeTimeout)
	assert.Equal(t, governance.DefaultMaxPayloadBytes, cfg.Governance.MaxPayloadBytes)
	assert.Equal(t, tier.DefaultMembership(), cfg.Tiers.Membership())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Tracing.Enabled)
	assert.False(t, cfg.Metrics.Enabled)

	assert.NoError(t, NewValidator().Validate(cfg))
}

func TestDefaultHomeDir(t *testing.T) {
	t.Setenv(HomeEnv, "")
	assert.Contains(t, DefaultHomeDir(), ".memrouter")

	t.Setenv(HomeEnv, "/opt/mr")
	assert.Equal(t, "/opt/mr", DefaultHomeDir())
	assert.Equal(t, "/opt/mr/config.yaml", DefaultConfigPath(DefaultHomeDir()))
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
router:
  operation_timeout: 3s
primary:
  path: /tmp/records.db
secondary:
  uri: neo4j://graph:7687
tiers:
  personal: [notes]
  coordination: [messages]
  governance: [audit]
`)

	cfg, err := NewConfigLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Router.OperationTimeout)
	assert.Equal(t, 5*time.Second, cfg.Router.ProbeTimeout)
	assert.Equal(t, "/tmp/records.db", cfg.Primary.Path)
	assert.Equal(t, 10, cfg.Primary.MaxOpenConns)
	assert.Equal(t, "neo4j://graph:7687", cfg.Secondary.URI)
	assert.Equal(t, "neo4j", cfg.Secondary.Username)
	assert.Equal(t, []string{"notes"}, cfg.Tiers.Personal)
	assert.Equal(t, governance.DefaultForbiddenTerms(), cfg.Governance.ForbiddenTerms)
}

func TestLoad_InterpolatesEnvVars(t *testing.T) {
	t.Setenv("TEST_GRAPH_PASSWORD", "s3cr3t")
	t.Setenv("TEST_DATA_DIR", "/data")

	path := writeConfig(t, `
primary:
  path: ${TEST_DATA_DIR}/memrouter.db
secondary:
  password: ${TEST_GRAPH_PASSWORD}
  username: ${TEST_UNSET_VARIABLE}
`)

	cfg, err := NewConfigLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/memrouter.db", cfg.Primary.Path)
	assert.Equal(t, "s3cr3t", cfg.Secondary.Password)
	assert.Equal(t, "${TEST_UNSET_VARIABLE}", cfg.Secondary.Username)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MEMROUTER_ROUTER_PROBE_TIMEOUT", "750ms")
	t.Setenv("MEMROUTER_LOGGING_LEVEL", "debug")

	path := writeConfig(t, "logging:\n  level: warn\n")

	cfg, err := NewConfigLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, cfg.Router.ProbeTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvironmentListOverride(t *testing.T) {
	t.Setenv("MEMROUTER_GOVERNANCE_FORBIDDEN_TERMS", "password,ssn")

	cfg, err := NewConfigLoader(NewValidator()).LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"password", "ssn"}, cfg.Governance.ForbiddenTerms)
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	loader := NewConfigLoader(NewValidator())

	_, err := loader.Load(missing)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_NOT_FOUND, types.CodeOf(err))

	cfg, err := loader.LoadWithDefaults(missing)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Router, cfg.Router)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "router: [unclosed\n")

	_, err := NewConfigLoader(NewValidator()).Load(path)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_PARSE_FAILED, types.CodeOf(err))
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, `
router:
  operation_timeout: 0s
logging:
  format: xml
`)

	_, err := NewConfigLoader(NewValidator()).Load(path)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
	assert.Contains(t, err.Error(), "router.operation_timeout must be greater than 0")
	assert.Contains(t, err.Error(), "invalid log format")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty tier list",
			mutate:  func(c *Config) { c.Tiers.Coordination = nil },
			wantErr: "tiers.coordination is required",
		},
		{
			name:    "blank resource",
			mutate:  func(c *Config) { c.Tiers.Personal = []string{"notes", ""} },
			wantErr: "tiers.personal[1] is required",
		},
		{
			name:    "resource in two tiers",
			mutate:  func(c *Config) { c.Tiers.Governance = append(c.Tiers.Governance, "agent_memory") },
			wantErr: "tiers:",
		},
		{
			name:    "missing primary path",
			mutate:  func(c *Config) { c.Primary.Path = "" },
			wantErr: "primary.path is required",
		},
		{
			name:    "missing graph password",
			mutate:  func(c *Config) { c.Secondary.Password = "" },
			wantErr: "secondary.password is required",
		},
		{
			name:    "non-positive payload limit",
			mutate:  func(c *Config) { c.Governance.MaxPayloadBytes = -1 },
			wantErr: "governance:",
		},
		{
			name: "tracing without endpoint",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
			},
			wantErr: "tracing: endpoint is required",
		},
		{
			name: "otlp metrics without endpoint",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Provider = "otlp"
			},
			wantErr: "metrics: endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := NewValidator().Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.Error(t, NewValidator().Validate(nil))
}

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Router.OperationTimeout = 4 * time.Second
	cfg.Tiers.Personal = []string{"journal"}

	require.NoError(t, Write(path, cfg, false))

	err := Write(path, cfg, false)
	require.Error(t, err)
	require.NoError(t, Write(path, cfg, true))

	loaded, err := NewConfigLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4*time.Second, loaded.Router.OperationTimeout)
	assert.Equal(t, []string{"journal"}, loaded.Tiers.Personal)
	assert.Equal(t, cfg.Secondary.URI, loaded.Secondary.URI)
}

func TestFormatFieldPath(t *testing.T) {
	assert.Equal(t, "router.operation_timeout", formatFieldPath("Config.Router.OperationTimeout"))
	assert.Equal(t, "secondary.uri", formatFieldPath("Config.Secondary.URI"))
	assert.Equal(t, "tracing.tls_cert_file", formatFieldPath("Config.Tracing.TLSCertFile"))
	assert.Equal(t, "standalone", formatFieldPath("standalone"))
}
