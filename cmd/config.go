package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvpick/internal/config"
	"github.com/oakwood-commons/kvpick/pkg/settings"
)

// configCmd groups configuration-related subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kvpick configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the merged configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		run := settings.FromContextOrDefault(cmd.Context())
		switch run.Output {
		case config.FormatJSON:
			return encode(cmd.OutOrStdout(), activeConfig, config.FormatJSON)
		case "", config.FormatTable, config.FormatYAML:
			out, err := activeConfig.Marshal()
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		default:
			return fmt.Errorf("invalid output for config: %s (use yaml|json)", run.Output)
		}
	},
}

var configDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the built-in default configuration with comments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := cmd.OutOrStdout().Write(config.DefaultYAML())
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use, if any",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := config.ResolvePath(configFile)
		if path == "" {
			path = "(built-in defaults)"
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

func init() { //nolint:gochecknoinits
	configCmd.AddCommand(configGetCmd, configDefaultCmd, configPathCmd)
}
