// Package version carries build metadata for the crudsmith binaries.
package version

import "fmt"

// These variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/jrazmi/crudsmith/sdk/version.Commit=$(git rev-parse HEAD)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns the version line for a binary.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, shortCommit(), BuildTime)
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
