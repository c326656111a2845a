// Package version reports the build of the client.
//
// Release builds stamp Version and Commit through ldflags:
//
//	go build -ldflags="-X github.com/muurk/frisquet/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/frisquet/internal/version.Commit=abc1234" ./cmd/frisquet-connect
//
// Other builds fall back to the VCS stamp embedded by the go tool.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set through ldflags
var (
	Version = ""
	Commit  = ""
)

// Info describes a build
type Info struct {
	Version   string
	Commit    string
	Time      time.Time // commit time, zero when unknown
	Modified  bool
	GoVersion string
}

func init() {
	info := fromBuildInfo(readBuildInfo())
	if Version == "" {
		Version = info.Version
	}
	if Commit == "" {
		Commit = info.Commit
	}
}

var readBuildInfo = func() []debug.BuildSetting {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return bi.Settings
}

// fromBuildInfo derives version and commit from VCS settings. Without them
// the version is "dev" and the commit "unknown".
func fromBuildInfo(settings []debug.BuildSetting) Info {
	info := Info{Version: "dev", Commit: "unknown", GoVersion: runtime.Version()}
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
			if len(info.Commit) > 7 {
				info.Commit = info.Commit[:7]
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				info.Time = t
			}
		}
	}
	if info.Modified && info.Commit != "unknown" {
		info.Commit += "-dirty"
	}
	if !info.Time.IsZero() {
		info.Version = "dev-" + info.Time.UTC().Format("20060102")
	}
	return info
}

// Get returns the running build.
func Get() Info {
	info := fromBuildInfo(readBuildInfo())
	info.Version, info.Commit = Version, Commit
	return info
}

// Full returns the version with its commit and Go toolchain.
func Full() string {
	return fmt.Sprintf("%s (commit: %s, %s)", Version, Commit, runtime.Version())
}

// UserAgent is sent with outgoing HTTP requests.
func UserAgent() string {
	return "frisquet-connect/" + Version
}
