// Package version reports the build version of the voltlane binaries.
package version

import "runtime/debug"

// Version can be set at build time, e.g.
// go build -ldflags "-X github.com/voltlane/voltlane/version.Version=$(git describe --dirty)"
var Version string

// Hash is the short vcs revision embedded by the go tool, with a -dirty
// suffix for modified trees.
var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var revision string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision != "" && modified {
		revision += "-dirty"
	}
	return revision
}()

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	if Hash != "" {
		return Hash
	}
	return "devel"
}()
