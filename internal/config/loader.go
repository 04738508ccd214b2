package config

import (
	"errors"
	"os"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/memrouter/internal/types"
)

// EnvPrefix namespaces environment overrides, e.g. MEMROUTER_ROUTER_PROBE_TIMEOUT.
const EnvPrefix = "MEMROUTER"

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

type viperConfigLoader struct {
	validator ConfigValidator
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{
		validator: validator,
	}
}

// Load reads path, layers environment overrides on top and validates the
// result. Keys missing from the file keep their defaults.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	return l.load(path, true)
}

// LoadWithDefaults behaves like Load but treats a missing file as empty.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	return l.load(path, false)
}

func (l *viperConfigLoader) load(path string, required bool) (*Config, error) {
	v := newViper()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to read config file "+path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) || required {
		return nil, types.WrapError(types.CONFIG_NOT_FOUND, "config file "+path+" not found", err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := l.validator.Validate(cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "configuration validation failed", err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	return v
}

// setDefaults registers every leaf key so AutomaticEnv can override it even
// when the file omits the key.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("tiers.personal", cfg.Tiers.Personal)
	v.SetDefault("tiers.coordination", cfg.Tiers.Coordination)
	v.SetDefault("tiers.governance", cfg.Tiers.Governance)

	v.SetDefault("governance.forbidden_terms", cfg.Governance.ForbiddenTerms)
	v.SetDefault("governance.max_payload_bytes", cfg.Governance.MaxPayloadBytes)

	v.SetDefault("router.operation_timeout", cfg.Router.OperationTimeout)
	v.SetDefault("router.probe_timeout", cfg.Router.ProbeTimeout)
	v.SetDefault("router.health_interval", cfg.Router.HealthInterval)

	v.SetDefault("primary.path", cfg.Primary.Path)
	v.SetDefault("primary.max_open_conns", cfg.Primary.MaxOpenConns)
	v.SetDefault("primary.max_idle_conns", cfg.Primary.MaxIdleConns)
	v.SetDefault("primary.conn_max_lifetime", cfg.Primary.ConnMaxLifetime)
	v.SetDefault("primary.busy_timeout", cfg.Primary.BusyTimeout)

	v.SetDefault("secondary.uri", cfg.Secondary.URI)
	v.SetDefault("secondary.username", cfg.Secondary.Username)
	v.SetDefault("secondary.password", cfg.Secondary.Password)
	v.SetDefault("secondary.database", cfg.Secondary.Database)
	v.SetDefault("secondary.max_connection_pool_size", cfg.Secondary.MaxConnectionPoolSize)
	v.SetDefault("secondary.connection_timeout", cfg.Secondary.ConnectionTimeout)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("tracing.enabled", cfg.Tracing.Enabled)
	v.SetDefault("tracing.provider", cfg.Tracing.Provider)
	v.SetDefault("tracing.endpoint", cfg.Tracing.Endpoint)
	v.SetDefault("tracing.service_name", cfg.Tracing.ServiceName)
	v.SetDefault("tracing.sample_rate", cfg.Tracing.SampleRate)
	v.SetDefault("tracing.tls_cert_file", cfg.Tracing.TLSCertFile)
	v.SetDefault("tracing.insecure_mode", cfg.Tracing.InsecureMode)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.provider", cfg.Metrics.Provider)
	v.SetDefault("metrics.listen_address", cfg.Metrics.ListenAddress)
	v.SetDefault("metrics.endpoint", cfg.Metrics.Endpoint)
	v.SetDefault("metrics.export_interval", cfg.Metrics.ExportInterval)
	v.SetDefault("metrics.insecure_mode", cfg.Metrics.InsecureMode)
}

// decode interpolates ${VAR} references across all settings, then unmarshals
// the result.
func decode(v *viper.Viper) (*Config, error) {
	settings, _ := interpolateEnvVars(v.AllSettings()).(map[string]interface{})

	iv := viper.New()
	if err := iv.MergeConfigMap(settings); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to merge interpolated settings", err)
	}

	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := iv.Unmarshal(&cfg, hooks); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}
	if err := expandPaths(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to expand paths", err)
	}
	return &cfg, nil
}

// interpolateEnvVars recursively interpolates environment variables in the config map.
// Supports ${VAR_NAME} syntax.
func interpolateEnvVars(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			result[key] = interpolateEnvVars(value)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, value := range v {
			result[i] = interpolateEnvVars(value)
		}
		return result
	case []string:
		result := make([]string, len(v))
		for i, value := range v {
			result[i] = interpolateString(value)
		}
		return result
	case string:
		return interpolateString(v)
	default:
		return v
	}
}

// interpolateString replaces ${VAR_NAME} with the variable's value. Unset
// variables are left as written.
func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if envValue := os.Getenv(varName); envValue != "" {
			return envValue
		}
		return match
	})
}

// Write renders cfg as YAML at path, refusing to overwrite unless force is set.
func Write(path string, cfg *Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return types.NewError(types.CONFIG_LOAD_FAILED, "config file "+path+" already exists")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return types.WrapError(types.CONFIG_PARSE_FAILED, "failed to render config", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return types.WrapError(types.CONFIG_LOAD_FAILED, "failed to write config file "+path, err)
	}
	return nil
}
