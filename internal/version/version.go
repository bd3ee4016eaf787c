// Package version carries the release version stamped into the binary.
package version

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version is the released service version, overridable at build time:
//
//	go build -ldflags "-X github.com/vouchapp/vouch/internal/version.Version=v0.3.0"
var Version = "0.0.0-dev"

// DevVersion is what dev and demo instances report.
var DevVersion = Version

// GitCommit is the commit hash at build time, stamped the same way.
var GitCommit = "unknown"

// GetCurrentVersion returns the version the given mode should report.
func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

// IsVersionGreaterThan compares two bare semver strings.
func IsVersionGreaterThan(version, target string) bool {
	return semver.Compare("v"+version, "v"+target) > 0
}

// SortVersion sorts bare semver strings ascending.
type SortVersion []string

func (s SortVersion) Len() int      { return len(s) }
func (s SortVersion) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s SortVersion) Less(i, j int) bool {
	return semver.Compare("v"+s[i], "v"+s[j]) < 0
}

// String is Version plus the short commit when one was stamped in.
func String() string {
	if GitCommit == "" || GitCommit == "unknown" {
		return Version
	}
	short := GitCommit
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s", Version, short)
}
