package app

import (
	"fmt"
	"runtime/debug"
)

// Version, Commit and BuildTime are stamped with -ldflags "-X ...". When a
// field is left unset the VCS settings embedded by the Go toolchain are used.
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// BuildVersion formats the version reported in startup logs and /health.
func BuildVersion() string {
	commit, built := Commit, BuildTime
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "":
				commit = shortRevision(s.Value)
			case s.Key == "vcs.time" && built == "":
				built = s.Value
			}
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, commit, built)
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
