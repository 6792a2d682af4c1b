// Package version carries build metadata stamped in at link time.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set via -ldflags at build time, e.g.
//
//	go build -ldflags "-X github.com/marcus/tasksync/internal/version.Version=v1.2.0"
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String returns a human-readable version line.
func String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tasksync %s", Version)
	if Commit != "" {
		fmt.Fprintf(&b, " (%s)", shortCommit(Commit))
	}
	if Date != "" {
		fmt.Fprintf(&b, " built %s", Date)
	}
	fmt.Fprintf(&b, " %s/%s", runtime.GOOS, runtime.GOARCH)
	return b.String()
}

// IsDevelopmentVersion returns true for non-release versions.
func IsDevelopmentVersion(v string) bool {
	if v == "" || v == "unknown" || v == "dev" || v == "devel" {
		return true
	}
	if strings.HasPrefix(v, "devel+") {
		return true
	}
	return false
}

func shortCommit(c string) string {
	if len(c) > 8 {
		return c[:8]
	}
	return c
}
