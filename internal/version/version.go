// Package version provides build information for salesframe binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const (
	unknownValue     = "unknown"
	commitHashLength = 7
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
	GoVersion = runtime.Version()
)

// BuildInfo contains build information
type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Module    string `json:"module"`
	Dirty     bool   `json:"dirty"`
}

// Info returns build information, filling the module path from the runtime
func Info() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
		Dirty:     strings.Contains(GitCommit, "-dirty"),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.Module = buildInfo.Main.Path
	}

	return info
}

// String returns a formatted version string
func (b BuildInfo) String() string {
	var sb strings.Builder
	sb.WriteString("salesframe\n")
	fmt.Fprintf(&sb, "Version: %s", b.Version)
	if b.Dirty {
		sb.WriteString(" (dirty)")
	}
	sb.WriteString("\n")

	if b.BuildDate != unknownValue {
		fmt.Fprintf(&sb, "Build Date: %s\n", b.BuildDate)
	}

	if b.GitCommit != unknownValue {
		commit := b.GitCommit
		if len(commit) > commitHashLength {
			commit = commit[:commitHashLength]
		}
		fmt.Fprintf(&sb, "Git Commit: %s\n", commit)
	}

	fmt.Fprintf(&sb, "Go Version: %s\n", b.GoVersion)

	if b.Module != "" {
		fmt.Fprintf(&sb, "Module: %s\n", b.Module)
	}

	return sb.String()
}
