// Package version exposes the build identity of the treefeed binary.
package version

import "fmt"

// Binary is treefeed's API version. Datasets produced by different Binary
// versions are not guaranteed to be window-compatible.
var Binary = 1

// BinaryGitHash is the Git hash of the treefeed binary which is executing.
// Overridden at link time via -ldflags.
var BinaryGitHash = "<unknown>"

// String renders the version the way the CLI prints it.
func String() string {
	return fmt.Sprintf("%d (%s)", Binary, BinaryGitHash)
}
