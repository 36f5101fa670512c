package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/quarry/internal/buildinfo"
)

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var readBuildInfo = debug.ReadBuildInfo

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show quarry version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersionInfo()
		if isJSONOutput() {
			outputSuccess(info, nil)
			return nil
		}
		fmt.Fprintf(stdout, "quarry %s\n", info.Version)
		if info.Commit != "" {
			fmt.Fprintf(stdout, "commit: %s %s\n", info.Commit, info.Date)
		}
		fmt.Fprintf(stdout, "%s %s\n", info.GoVersion, info.Platform)
		return nil
	},
}

// currentVersionInfo prefers module build info and falls back to ldflags.
func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   "devel",
		Commit:    buildinfo.Commit,
		Date:      buildinfo.Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if buildinfo.Version != "" {
		info.Version = buildinfo.Version
	}

	bi, ok := readBuildInfo()
	if !ok || bi == nil {
		return info
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.time":
			info.Date = s.Value
		}
	}
	return info
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
