// Package config holds build information shared by the alarmlog CLI and the
// alarmlog-lambda function. Both binaries are stamped with the same flags:
//
//	go build -ldflags "\
//	  -X github.com/good-yellow-bee/alarmlog/pkg/config.Version=v1.2.0 \
//	  -X github.com/good-yellow-bee/alarmlog/pkg/config.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/good-yellow-bee/alarmlog/pkg/config.BuildTime=$(date -u +%FT%TZ)" \
//	  ./cmd/alarmlog ./cmd/alarmlog-lambda
//
// The Lambda logs Version and Commit once per cold start.
package config

import (
	"fmt"
	"runtime"
)

// Build information. Populated at build time via -ldflags; unstamped builds
// report "dev".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains all build information.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// VersionString returns a formatted version string.
func VersionString() string {
	return fmt.Sprintf("alarmlog %s (%s) built at %s with %s",
		Version, Commit, BuildTime, runtime.Version())
}
