package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the home directory when set.
const HomeEnv = "MEMROUTER_HOME"

// DefaultHomeDir returns $MEMROUTER_HOME, else ~/.memrouter, falling back to
// the temp directory if the user home cannot be determined.
func DefaultHomeDir() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".memrouter")
	}
	return filepath.Join(userHome, ".memrouter")
}

// DefaultConfigPath returns the default config file path for a given home directory
func DefaultConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}

// ExpandHome replaces a leading "~" with the user's home directory and cleans
// the result. Environment references are handled earlier by ${VAR}
// interpolation, so "$" is left untouched here.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}

// expandPaths applies ExpandHome to every filesystem path in cfg.
func expandPaths(cfg *Config) error {
	paths := []*string{&cfg.Primary.Path, &cfg.Tracing.TLSCertFile}
	if out := strings.ToLower(cfg.Logging.Output); out != "stdout" && out != "stderr" {
		paths = append(paths, &cfg.Logging.Output)
	}
	for _, p := range paths {
		expanded, err := ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}
