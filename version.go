package agentui

import (
	"fmt"
	"runtime"
)

var (
	// Version is the library semantic version (injectable via -ldflags).
	Version = "v0.3.0"
	// GitCommit is the git SHA (injectable via -ldflags).
	GitCommit = "unknown"
	// GoVersion records the Go toolchain version used.
	GoVersion = runtime.Version()
)

// GetVersion returns a human-readable version string.
func GetVersion() string {
	return fmt.Sprintf("agentui %s (commit: %s, go: %s)", Version, GitCommit, GoVersion)
}
