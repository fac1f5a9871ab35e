// Package buildinfo carries version metadata stamped at link time:
//
//	-X 'github.com/m3rciful/arrbot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/arrbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/arrbot/core/buildinfo.Date=2026-01-30T12:00:00Z'
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "local"
	// Date is RFC3339; empty for local builds.
	Date = ""
)

// String renders "<version> (commit <c>[, built <date>])". Unstamped builds
// fall back to the VCS revision recorded by the go tool.
func String() string {
	return format(Version, Commit, Date, readVCS)
}

func format(version, commit, date string, vcs func() (string, string)) string {
	if commit == "local" {
		if rev, at := vcs(); rev != "" {
			commit = rev
			if date == "" {
				date = at
			}
		}
	}
	if len(commit) > 12 {
		commit = commit[:12]
	}
	s := fmt.Sprintf("%s (commit %s", version, commit)
	if date != "" {
		s += ", built " + date
	}
	return s + ")"
}

func readVCS() (rev, at string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.time":
			at = s.Value
		}
	}
	return rev, at
}
