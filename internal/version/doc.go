// Package version exposes the build identity of the controller binary.
//
// Version, Commit, and BuildTime are injected via ldflags by release
// builds and default to placeholder values for local ones. Full renders
// the identity for the version subcommand and the startup log.
package version
