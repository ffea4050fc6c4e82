// Package version holds the release version of the gmim tools.
package version

import "fmt"

const (
	Major = 0 // Major version component of the current release
	Minor = 3 // Minor version component of the current release
	Patch = 0 // Patch version component of the current release
	Meta  = "unstable"
)

// Version holds the textual version string.
var Version = fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)

// WithMeta holds the textual version string including the metadata.
var WithMeta = func() string {
	v := Version
	if Meta != "" {
		v += "-" + Meta
	}
	return v
}()

// WithCommit appends the first 8 characters of the commit hash and the
// commit date, when known, to the version string.
func WithCommit(gitCommit, gitDate string) string {
	vsn := WithMeta
	if len(gitCommit) >= 8 {
		vsn += "-" + gitCommit[:8]
	}
	if (Meta != "stable") && (gitDate != "") {
		vsn += "-" + gitDate
	}
	return vsn
}
