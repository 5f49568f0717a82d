package version

// Version is overridden at build time with -ldflags "-X .../version.Version=..."
var Version = "0.4.0"

// BuildVersion returns the version string for display
func BuildVersion() string {
	return "estatedesk version " + Version
}

// APIVersion returns just the version number for API responses
func APIVersion() string {
	return Version
}
