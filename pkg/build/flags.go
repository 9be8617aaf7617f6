// SPDX-License-Identifier: MIT
//
// Package build carries metadata stamped into the binary at link time.
// Version, commit and build timestamp are set with -ldflags; a binary
// built without them reports "dev" values instead of failing, so plain
// `go build` stays usable during development.
package build

import "fmt"

// Populated via -ldflags, e.g.
//
//	go build -ldflags "-X specviz/pkg/build.version=v1.0.0 \
//	  -X specviz/pkg/build.commit=$(git rev-parse --short HEAD) \
//	  -X specviz/pkg/build.timestamp=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version   = "dev"
	commit    = "none"
	timestamp = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string
	Commit    string
	Timestamp string
}

// Current returns the build information stamped into this binary.
func Current() Info {
	return Info{
		Version:   version,
		Commit:    commit,
		Timestamp: timestamp,
	}
}

// String renders the build info in the one-line form used by the version
// subcommand.
func (i Info) String() string {
	return fmt.Sprintf("specviz %s (commit %s, built %s)", i.Version, i.Commit, i.Timestamp)
}
