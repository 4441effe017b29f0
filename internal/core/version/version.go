// Package version reports what binary is running
package version

import (
	"runtime"
	"runtime/debug"
)

// Overridden with -ldflags "-X garden/internal/core/version.commit=abcd"
var (
	service = "garden-api"
	version = "dev"
	commit  = ""
	date    = "unknown"
)

// BuildInfo identifies a build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

// Info returns the linked build info. Without an ldflags commit the VCS
// revision stamped by the go tool is used, shortened to seven characters
func Info() BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  revision(),
		Date:    date,
		Go:      runtime.Version(),
	}
}

func revision() string {
	if commit != "" {
		return commit
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return "unknown"
}
