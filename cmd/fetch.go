package cmd

import (
	"fmt"

	"bludgeon/internal/fetch"
	"bludgeon/internal/util"

	"github.com/spf13/cobra"
)

// AddFetchCommand defines the fetch command.
func AddFetchCommand(parentCmd *cobra.Command) {
	var force bool

	var fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Download wp-cli.phar if it is missing",
		Long: `Makes sure the WP-CLI phar exists next to the bludgeon binary (or at wpcli.path).
With --force the current copy is replaced by a fresh download.`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			toolPath, err := cfg.ToolPath()
			if err != nil {
				return err
			}
			fetcher := fetch.New(cfg.WPCLI.URL)

			if force {
				if err := fetcher.Refresh(cobraCmd.Context(), toolPath); err != nil {
					util.Log.Errorf("Download failed: %v", err)
					return err
				}
			} else {
				downloaded, err := fetcher.Ensure(cobraCmd.Context(), toolPath)
				if err != nil {
					util.Log.Errorf("Download failed: %v", err)
					return err
				}
				if !downloaded {
					util.Log.Infof("wp-cli already present at %s", toolPath)
				}
			}
			fmt.Fprintln(cobraCmd.OutOrStdout(), toolPath)
			return nil
		},
	}

	fetchCmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing wp-cli.phar")
	parentCmd.AddCommand(fetchCmd)
}
