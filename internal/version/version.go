// Package version provides build version information for the application.
// This is a separate package to avoid import cycles between cli and agent packages.
package version

// Version is the build version string, set by ldflags during build.
// Format: vX.Y.Z or vX.Y.Z-dev for development builds.
var Version = "v2.1.0"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"

// Mode is the build mode, set by ldflags during build. Release builds leave
// it as "release"; dev builds pass -X .../internal/version.Mode=dev, which
// switches the agent launcher to the development path-resolution layout.
var Mode = "release"

// IsDev reports whether this binary was built in dev mode.
func IsDev() bool {
	return Mode == "dev"
}
