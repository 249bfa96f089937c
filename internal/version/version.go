// Package version provides build and version information for the journey engine.
package version

// Version is the current release version of the journey engine.
// This can be overridden at build time using:
//
//	go build -ldflags "-X github.com/moonpath/journey/internal/version.Version=x.y.z"
var Version = "1.0.0"
