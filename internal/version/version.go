// Package version reports the build identity of the assetforge binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info is the build identity shown by the version command and the health
// endpoint.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	BuildTime time.Time `json:"build_time,omitempty"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	Dirty     bool      `json:"dirty,omitempty"`
}

// Get collects the build identity, falling back to the module and VCS data
// embedded by the Go toolchain when the ldflags were not set.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: parseTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" || info.GitCommit == "unknown" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime.IsZero() {
				info.BuildTime = parseTime(s.Value)
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	if info.Version == "" || info.Version == "dev" {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			info.Version = v
		}
	}
	return info
}

// Short returns "v1.2.3", "v1.2.3 (abcdef1)" or "dev-abcdef1".
func (i Info) Short() string {
	commit := i.GitCommit
	if commit == "unknown" || len(commit) < 7 {
		return i.Version
	}
	if i.Version == "dev" {
		return "dev-" + commit[:7]
	}
	return fmt.Sprintf("%s (%s)", i.Version, commit[:7])
}

// String renders every field on its own line.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Version: %s\n", i.Version)
	if i.GitCommit != "unknown" {
		fmt.Fprintf(&b, "Commit: %s", i.GitCommit)
		if i.Dirty {
			b.WriteString(" (dirty)")
		}
		b.WriteString("\n")
	}
	if !i.BuildTime.IsZero() {
		fmt.Fprintf(&b, "Built: %s\n", i.BuildTime.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Go: %s\n", i.GoVersion)
	fmt.Fprintf(&b, "Platform: %s", i.Platform)
	return b.String()
}

func parseTime(s string) time.Time {
	if s == "" || s == "unknown" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
