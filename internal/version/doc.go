// Package version exposes build metadata for the SafeHome binaries.
//
// Version, Commit and BuildTime are injected with -ldflags -X and default to
// local build values. Full renders them for the `version` command and
// UserAgent tags control panel connections.
package version
