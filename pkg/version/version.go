// Package version reports build information.
package version

import "runtime/debug"

// Set at release build time:
//
//	go build -ldflags "-X github.com/newtron-network/cmdref/pkg/version.Version=v0.3.0 \
//	  -X github.com/newtron-network/cmdref/pkg/version.GitCommit=abc1234 \
//	  -X github.com/newtron-network/cmdref/pkg/version.BuildDate=2026-01-01T00:00:00Z"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		fromBuildInfo(info)
	}
}

// fromBuildInfo fills values left unset by ldflags from the module and
// VCS stamps that "go install" and "go build" record.
func fromBuildInfo(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && GitCommit == "unknown" && len(s.Value) >= 7:
			GitCommit = s.Value[:7]
		case s.Key == "vcs.time" && BuildDate == "unknown":
			BuildDate = s.Value
		}
	}
}

// Info returns a formatted version string for display.
func Info() string {
	return "cmdref " + Version + " (" + GitCommit + ") built " + BuildDate
}
