package version

// Version is the released version of armi.
var Version = "0.1.0"

// DevVersion is reported by development builds.
var DevVersion = "0.1.0-dev"

// GetCurrentVersion returns the version for the given mode.
func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}
