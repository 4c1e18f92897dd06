package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configFlags   runnerFlags
	configSources bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective configuration",
	Long: `Print the configuration serve would run with after merging defaults, the
runner config file, NETTY_* environment variables and flags.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFlags.resolve(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encoding configuration: %w", err)
		}
		fmt.Fprint(out, string(data))

		if configSources {
			fmt.Fprintln(out, "# sources")
			fmt.Fprint(out, cfg.FormatSources())
		}
		return nil
	},
}

func init() {
	configFlags.register(configCmd)
	configCmd.Flags().BoolVar(&configSources, "sources", false, "Also print where each value came from")
	rootCmd.AddCommand(configCmd)
}
