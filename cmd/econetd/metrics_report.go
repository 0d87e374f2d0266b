package main

import (
	"github.com/acornnet/econetd/internal/app"
	"github.com/spf13/cobra"
)

func newMetricsReportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:     "metrics-report",
		Short:   "Summarise a metrics CSV written by fileserver",
		Example: `  econetd metrics-report --file fs_metrics.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if file == "" && len(args) > 0 {
				file = args[0]
			}
			if file == "" {
				return missingFlagError(cmd, "--file")
			}
			return app.RunMetricsReport(file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Metrics CSV file (required)")
	return cmd
}
