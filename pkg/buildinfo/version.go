// Package buildinfo reports the keyplate version.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/keyplate/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/keyplate/pkg/buildinfo.Commit=$(git rev-parse HEAD)" ./cmd/keyplate
//
// Binaries built with go install carry module and VCS data instead, which
// [Resolve] falls back to.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// Info is a resolved set of build fields.
type Info struct {
	Version  string
	Commit   string
	Date     string
	Modified bool
}

// Resolve returns the ldflags values, filling the ones left at their
// defaults from the embedded Go build info.
func Resolve() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	return merge(info, bi)
}

func merge(info Info, bi *debug.BuildInfo) Info {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "none" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// ShortCommit is the first 12 characters of the commit.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 12 {
		return i.Commit[:12]
	}
	return i.Commit
}

// Key identifies the build in cache keys: the version and commit, marked
// when the tree was modified.
func (i Info) Key() string {
	k := i.Version + "@" + i.Commit
	if i.Modified {
		k += "+modified"
	}
	return k
}

// String returns the formatted build information.
func String() string {
	i := Resolve()
	dirty := ""
	if i.Modified {
		dirty = " (modified)"
	}
	return fmt.Sprintf("version: %s\ncommit: %s%s\nbuilt: %s", i.Version, i.ShortCommit(), dirty, i.Date)
}

// Template returns the version template string for cobra.
func Template() string {
	return "{{.Name}} " + String() + "\n"
}
