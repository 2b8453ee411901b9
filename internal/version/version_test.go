package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInfoString(t *testing.T) {
	info := BuildInfo{
		Version:   "1.2.0",
		BuildDate: "2019-04-01T00:00:00Z",
		GitCommit: "abcdef1234567-dirty",
		GoVersion: "go1.24.4",
		Module:    "github.com/paveg/salesframe",
		Dirty:     true,
	}

	out := info.String()
	assert.Contains(t, out, "Version: 1.2.0 (dirty)")
	assert.Contains(t, out, "Git Commit: abcdef1\n")
	assert.Contains(t, out, "Build Date: 2019-04-01T00:00:00Z")
	assert.Contains(t, out, "Module: github.com/paveg/salesframe")
}

func TestInfoDefaults(t *testing.T) {
	info := Info()
	assert.Equal(t, "dev", info.Version)
	assert.False(t, info.Dirty)
	assert.NotContains(t, info.String(), "Build Date")
}
