package cmd

import (
	"fmt"
	"os"

	"bludgeon/internal/config"
	"bludgeon/internal/util"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// AddConfigCommand defines the 'config' parent command and its subcommands.
func AddConfigCommand(parentCmd *cobra.Command) {
	var configCmd = &cobra.Command{
		Use:     "config",
		Short:   "View, create or edit the bludgeon configuration",
		Aliases: []string{"cfg"},
	}

	var viewCmd = &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration",
		Long:  `Prints the configuration after defaults, the config file and BLUDGEON_* variables are applied.`,
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal configuration: %w", err)
			}
			fmt.Fprintf(cobraCmd.OutOrStdout(), "# %s\n%s", cfgFile, data)
			return nil
		},
	}

	var force bool
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfgFile); err == nil && !force {
				return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", cfgFile)
			}
			if err := config.Save(cfgFile, config.Default()); err != nil {
				return err
			}
			util.Log.Infof("Wrote default configuration to %s", cfgFile)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration file")

	var editCmd = &cobra.Command{
		Use:   "edit",
		Short: "Edit the configuration file in $EDITOR",
		Long:  `Opens the configuration file in $VISUAL or $EDITOR, creating it with defaults first if needed.`,
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
				if err := config.Save(cfgFile, config.Default()); err != nil {
					return err
				}
			} else if err != nil {
				return fmt.Errorf("error checking config file %s: %w", cfgFile, err)
			}

			if err := util.OpenFileInEditor(cfgFile); err != nil {
				return err
			}
			if _, err := config.Load(cfgFile); err != nil {
				util.Log.Warnf("The edited configuration does not load: %v", err)
				return err
			}
			util.Log.Infof("Saved %s", cfgFile)
			return nil
		},
	}

	configCmd.AddCommand(viewCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(editCmd)
	parentCmd.AddCommand(configCmd)
}
