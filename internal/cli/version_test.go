package cli

import (
	"encoding/json"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	prev := readBuildInfo
	t.Cleanup(func() { readBuildInfo = prev })
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestCurrentVersionInfo(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/aidanlsb/quarry", Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-02-14T17:00:00Z"},
		},
	})

	info := currentVersionInfo()
	assert.Equal(t, "v0.3.0", info.Version)
	assert.Equal(t, "abc123", info.Commit)
	assert.Equal(t, "2026-02-14T17:00:00Z", info.Date)
}

func TestCurrentVersionInfoWithoutBuildInfo(t *testing.T) {
	stubBuildInfo(t, nil)
	assert.Equal(t, "devel", currentVersionInfo().Version)
}

func TestVersionCommandJSON(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	withJSONOutput(t, true)

	out := captureOutput(t, func() {
		require.NoError(t, versionCmd.RunE(versionCmd, nil))
	})

	var resp struct {
		OK   bool        `json:"ok"`
		Data versionInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.True(t, resp.OK)
	assert.Equal(t, "devel", resp.Data.Version)
	assert.NotEmpty(t, resp.Data.Platform)
}
