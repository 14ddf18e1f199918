package cmd

import (
	"fmt"
	"runtime"
	rdebug "runtime/debug"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvpick/pkg/settings"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print kvpick version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), versionString())
		return err
	},
}

// buildVersion prefers the ldflags version, then the module version, then
// the VCS revision recorded by the Go toolchain.
func buildVersion() (version, commit string) {
	version = settings.VersionInformation.BuildVersion
	commit = settings.VersionInformation.Commit

	info, ok := rdebug.ReadBuildInfo()
	if !ok {
		return version, commit
	}
	if version == "" || version == "v0.0.0-nightly" {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
	if commit == "" || commit == "unknown" {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				commit = s.Value[:7]
				break
			}
		}
	}
	return version, commit
}

// versionString is used by both `kvpick version` and --version.
func versionString() string {
	version, commit := buildVersion()
	return fmt.Sprintf("%s %s (commit %s, %s %s/%s)", settings.CliBinaryName, version, commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
