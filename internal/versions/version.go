// Package versions provides build version information for caraveld.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version information set by the build using -ldflags.
var (
	// Version is the current caraveld version
	Version = "dev"
	// Commit is the git commit hash of the build
	Commit = "unknown"
	// BuildDate is the date when the binary was built
	BuildDate = "unknown"
)

// VersionInfo represents the version information
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information, falling back to VCS build
// info when the build did not stamp a version.
func GetVersionInfo() VersionInfo {
	version, commit, buildDate := Version, Commit, BuildDate

	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs.revision":
					if commit == "unknown" {
						commit = setting.Value
					}
				case "vcs.time":
					if buildDate == "unknown" {
						buildDate = setting.Value
					}
				}
			}
		}
		if commit != "unknown" {
			version = fmt.Sprintf("build-%.8s", commit)
		}
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
