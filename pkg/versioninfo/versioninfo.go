package versioninfo

// Overridden at build time with -ldflags "-X github.com/brk3/habitbot/pkg/versioninfo.Version=...".
var (
	Version   = "dev"
	BuildDate = "unknown"
)

type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
}

func Get() VersionInfo {
	return VersionInfo{Version: Version, BuildDate: BuildDate}
}
