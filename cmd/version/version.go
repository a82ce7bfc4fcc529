package version

import (
	"fmt"
	rtdebug "runtime/debug"

	"github.com/spf13/cobra"
)

// set at build time via ldflags.
var version = "dev"

// AddVersionCommand defines the version command.
func AddVersionCommand(rootCmd *cobra.Command) {
	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version of bludgeon",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bludgeon version: %s\n", GetVersion())
		},
	}
	rootCmd.AddCommand(versionCmd)
}

// GetVersion returns the ldflags version, falling back to the module version
// recorded in the build info.
func GetVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := rtdebug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}
