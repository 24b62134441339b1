package version

import "fmt"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
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

// Full returns a human-readable version string for the named binary.
func Full(binary string) string {
	return fmt.Sprintf("%s version: %s, commit: %s, built at: %s", binary, Version, Commit, BuildTime)
}

// UserAgent identifies binary to the SafeHome server, e.g. "safehome-panel/0.1.0".
func UserAgent(binary string) string {
	return binary + "/" + Version
}
