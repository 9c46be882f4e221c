// Package version exposes build metadata for the scheduler binaries.
//
// Version, Commit and BuildTime are injected with -ldflags "-X ..." and
// fall back to development values for local builds.
package version
