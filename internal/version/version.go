// Package version carries build metadata for framehue. Values are set with
// -ldflags "-X github.com/jmylchreest/framehue/internal/version.Version=..."
// and fall back to the module's embedded VCS information.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the semantic version of the build.
	Version = "dev"

	// Commit is the git revision of the build.
	Commit = ""

	// Date is the build or commit time in RFC3339.
	Date = ""
)

// Info holds the version details printed by "framehue version".
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build metadata, filling gaps from debug.BuildInfo.
func GetInfo() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Commit == "":
				info.Commit = s.Value
			case s.Key == "vcs.time" && info.Date == "":
				info.Date = s.Value
			}
		}
	}
	return info
}

// ShortCommit abbreviates a revision to eight characters.
func ShortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}

// String returns a human-readable version line.
func String() string {
	return format(GetInfo())
}

func format(info Info) string {
	if info.Commit != "" && info.Date != "" {
		return fmt.Sprintf("framehue version %s (commit: %s, built: %s, %s, %s)",
			info.Version, ShortCommit(info.Commit), info.Date, info.GoVersion, info.Platform)
	}
	return fmt.Sprintf("framehue version %s (%s, %s)", info.Version, info.GoVersion, info.Platform)
}

// Short returns the bare version for cobra's --version flag.
func Short() string {
	return Version
}
