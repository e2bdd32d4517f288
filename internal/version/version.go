package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// ServerName is reported to clients in the initialize result
const ServerName = "xml-regions-language-server"

var (
	// Version information, set at build time via ldflags
	Version   = "dev"     // Version string (e.g., "v0.1.0")
	GitCommit = "unknown" // Git commit hash
	GitTag    = "unknown" // Git tag
	BuildTime = "unknown" // Build timestamp
	GitDirty  = ""        // "dirty" if working directory has uncommitted changes
)

// GetVersion returns the version string, preferring ldflags, then module
// build info, then the git tag and short commit.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "(devel)" && v != "" {
			return v
		}
	}

	if GitTag == "unknown" || GitCommit == "unknown" {
		return "dev"
	}

	v := GitTag
	if short := shortCommit(GitCommit); short != "" && !strings.HasSuffix(GitTag, short) {
		v += "-" + short
	}
	if GitDirty == "dirty" {
		v += "-dirty"
	}
	return v
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

// GetFullVersion returns the server name, version and commit, as printed by
// the --version flag.
func GetFullVersion() string {
	v := fmt.Sprintf("%s %s", ServerName, GetVersion())
	if GitCommit != "unknown" {
		v += fmt.Sprintf(" (commit: %s", GitCommit)
		if BuildTime != "unknown" {
			v += ", built: " + BuildTime
		}
		v += ")"
	}
	return v
}
