// Package version exposes build metadata for the memrouter binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Injected at build time via -ldflags "-X".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo is the structured form rendered by `memrouter version`.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// String returns a one-line version banner.
func String() string {
	info := Info()
	return fmt.Sprintf("memrouter %s (commit: %s, built: %s, go: %s)",
		info.Version, info.Commit, info.BuildTime, info.GoVersion)
}

// Info returns the build metadata. When the commit was not injected, the
// VCS revision stamped by the Go toolchain is used if present.
func Info() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    commit(),
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func commit() string {
	if GitCommit != "unknown" && GitCommit != "" {
		return GitCommit
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return GitCommit
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return GitCommit
}
