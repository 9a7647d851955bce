// Package version reports the build version of the mc6sysex tools.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/mc6sysex/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/mc6sysex/internal/version.Commit=abc1234"
//
// Unset values come from the VCS stamp in the build info, then fall back
// to a dev version.
var (
	Version = ""
	Commit  = ""
)

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo(readSettings())
	}
	if Version == "" {
		Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

func readSettings() map[string]string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	return settings
}

// fromBuildInfo fills Version and Commit from vcs.* build settings.
func fromBuildInfo(settings map[string]string) {
	if rev := settings["vcs.revision"]; Commit == "" && rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if settings["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Commit = rev
	}

	if Version == "" {
		if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

// Full returns "<tool> <version> (commit: <commit>)".
func Full(tool string) string {
	return fmt.Sprintf("%s %s (commit: %s)", tool, Version, Commit)
}
