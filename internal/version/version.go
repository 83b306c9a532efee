// SPDX-License-Identifier: MIT

// Package version carries build metadata injected with -ldflags -X.
package version

var (
	// Version is the release version.
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return Version + " (commit: " + Commit + ", built: " + Date + ")"
}
