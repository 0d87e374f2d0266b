package main

import (
	"github.com/acornnet/econetd/internal/app"
	"github.com/spf13/cobra"
)

type fileServerFlags struct {
	stationFlags
	stationsFile string
	nackUnknown  bool
	logFormat    string
	logFile      string
	logEvery     int
	metricsCSV   string
	metricsJSON  string
}

func newFileServerCmd() *cobra.Command {
	flags := &fileServerFlags{}
	cmd := &cobra.Command{
		Use:   "fileserver",
		Short: "Answer NetFS requests on port 0x99",
		Long: `Runs a minimal NetFS file server. It answers the *I AM log-on command
with fixed directory handles and the echo command with a test string.
Other requests are ignored unless --nack-unknown is given.`,
		Example: `  # Serve on the AUN stations listed in a config file
  econetd fileserver --config econet.yaml

  # Serve as station 0.254 and reject unknown commands
  econetd fileserver --station 254 --nack-unknown`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			return app.RunFileServer(app.FileServerOptions{
				ConfigPath:   flags.configPath,
				Station:      flags.station,
				Backend:      flags.backend,
				Listen:       flags.listen,
				StationsFile: flags.stationsFile,
				NackUnknown:  flags.nackUnknown,
				LogLevel:     flags.logLevel,
				LogFormat:    flags.logFormat,
				LogFile:      flags.logFile,
				LogEvery:     flags.logEvery,
				MetricsCSV:   flags.metricsCSV,
				MetricsJSON:  flags.metricsJSON,
			})
		},
	}
	registerStationFlags(cmd, &flags.stationFlags)
	cmd.Flags().StringVar(&flags.stationsFile, "stations-file", "", "AUN station table (YAML)")
	cmd.Flags().BoolVar(&flags.nackUnknown, "nack-unknown", false, "Reply \"Bad command\" to unsupported requests")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "", "Log format: text|json")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "Write every log line to this file")
	cmd.Flags().IntVar(&flags.logEvery, "log-every", 0, "Print only every Nth console log line")
	cmd.Flags().StringVar(&flags.metricsCSV, "metrics-csv", "", "Write per-request metrics as CSV")
	cmd.Flags().StringVar(&flags.metricsJSON, "metrics-json", "", "Write a metrics summary as JSON")
	return cmd
}
