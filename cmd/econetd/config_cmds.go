package main

import (
	"fmt"

	"github.com/acornnet/econetd/internal/config"
	"github.com/spf13/cobra"
)

func newPrintDefaultConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print-default-config",
		Short: "Print a default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := config.Marshal(config.CreateDefaultConfig())
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newValidateConfigCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Check a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if path == "" && len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				return missingFlagError(cmd, "--config")
			}
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (station %d.%d, backend %s)\n",
				path, cfg.Station.Net, cfg.Station.Station, cfg.Hardware.Backend)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "Config file (required)")
	return cmd
}
