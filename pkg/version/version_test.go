package version

import (
	"runtime/debug"
	"testing"
)

func TestInfo(t *testing.T) {
	saved := Version
	defer func() { Version = saved }()

	Version = "v0.3.0"
	want := "cmdref v0.3.0 (" + GitCommit + ") built " + BuildDate
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestFromBuildInfo(t *testing.T) {
	v, c, d := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = v, c, d }()

	Version, GitCommit, BuildDate = "dev", "unknown", "unknown"
	info := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-03-01T10:00:00Z"},
		},
	}
	fromBuildInfo(info)
	if Version != "v0.4.1" || GitCommit != "0123456" || BuildDate != "2026-03-01T10:00:00Z" {
		t.Errorf("fromBuildInfo() = %s %s %s", Version, GitCommit, BuildDate)
	}

	// ldflags values win.
	Version, GitCommit = "v1.0.0", "feedbee"
	fromBuildInfo(info)
	if Version != "v1.0.0" || GitCommit != "feedbee" {
		t.Errorf("fromBuildInfo() overrode ldflags: %s %s", Version, GitCommit)
	}

	Version = "dev"
	fromBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if Version != "dev" {
		t.Errorf("Version = %q, want dev for a (devel) build", Version)
	}
}
