package main

import (
	"github.com/acornnet/econetd/internal/app"
	"github.com/spf13/cobra"
)

type configureFlags struct {
	configPath  string
	interactive bool
	write       bool
}

func newConfigureCmd() *cobra.Command {
	flags := &configureFlags{}
	cmd := &cobra.Command{
		Use:   "configure [item] [args]",
		Short: "Set station address, clock or termination",
		Long: `Applies one configuration item and reads the result back from the
interface. Items:

  netstation <station> | <net.station>
  netclock <divider> [on|off]
  netterminate <on|off>

With --interactive the settings are edited in a form instead.`,
		Example: `  # Make this node station 1.20 and save it
  econetd configure netstation 1.20 --config econet.yaml --write

  # Drive the clock with divider 5
  econetd configure netclock 5 on`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if len(args) == 0 && !flags.interactive {
				return missingFlagError(cmd, "item or --interactive")
			}
			opts := app.ConfigureOptions{
				ConfigPath:  flags.configPath,
				Interactive: flags.interactive,
				Write:       flags.write,
			}
			if len(args) > 0 {
				opts.Item = args[0]
				opts.Args = args[1:]
			}
			return app.RunConfigure(opts)
		},
	}
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Config file to read and update")
	cmd.Flags().BoolVar(&flags.interactive, "interactive", false, "Edit settings in a form")
	cmd.Flags().BoolVar(&flags.write, "write", false, "Write the result back to --config")
	return cmd
}
