package version

import "fmt"

var (
	// Version is the semantic version of the build, overridden via ldflags
	// on release builds.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full renders the build identity the way it appears in the startup log
// and in `regatta-timer version` output.
func Full() string {
	return fmt.Sprintf("regatta-timer %s (commit %s, built %s)", Version, Commit, BuildTime)
}
