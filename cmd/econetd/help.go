package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func handleHelpArg(cmd *cobra.Command, args []string) bool {
	if len(args) == 0 {
		return false
	}
	if strings.EqualFold(args[0], "help") {
		_ = cmd.Help()
		return true
	}
	return false
}

func missingFlagError(cmd *cobra.Command, flag string) error {
	_ = cmd.Help()
	return fmt.Errorf("required flag %s not set", flag)
}

// stationFlags are shared by every command that opens a station.
type stationFlags struct {
	configPath string
	station    string
	backend    string
	listen     string
	logLevel   string
}

func registerStationFlags(cmd *cobra.Command, f *stationFlags) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file (default: built-in defaults)")
	cmd.Flags().StringVar(&f.station, "station", "", "Own address as net.station or station")
	cmd.Flags().StringVar(&f.backend, "backend", "", "Wire backend: aun|loopback")
	cmd.Flags().StringVar(&f.listen, "listen", "", "AUN UDP listen address (host:port)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: silent|error|info|verbose|debug")
}
