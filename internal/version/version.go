// Package version holds build information set with -ldflags -X.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"     // ex: v0.1.0
	Commit    = "none"    // ex: abcd123
	BuildDate = "unknown" // ex: 2026-03-01T18:42:00Z
)

// GoVersion is the toolchain the binary was built with.
var GoVersion = runtime.Version()

// String formats the build information on one line.
func String() string {
	return fmt.Sprintf("steamjump %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
