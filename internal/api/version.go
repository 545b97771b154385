package api

// Version information, set at build time via ldflags.
var (
	ArcadeVersion = "dev"
	GitCommit     = "unknown"
	BuildTime     = "unknown"
)

// GetVersionInfo returns the current version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		ArcadeVersion: ArcadeVersion,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
	}
}
