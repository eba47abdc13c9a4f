// Package version holds the build version, overridden at link time with
// -ldflags "-X github.com/avandenberg/weave/pkg/version.Version=...".
package version

// Version is the current wv version.
var Version = "dev"
