// Package versions provides build version information for the daemon.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build information, set at link time via -ldflags
var (
	// Version is the semantic version of the build
	Version = "dev"

	// Commit is the git commit the binary was built from
	Commit = "unknown"

	// BuildDate is the UTC timestamp of the build
	BuildDate = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information of the running binary.
// When the commit was not injected at link time it falls back to the VCS
// info embedded by the Go toolchain.
func GetVersionInfo() VersionInfo {
	commit := Commit
	if commit == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					commit = setting.Value
					break
				}
			}
		}
	}

	return VersionInfo{
		Version:   Version,
		Commit:    commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
