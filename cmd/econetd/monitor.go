package main

import (
	"github.com/acornnet/econetd/internal/app"
	"github.com/spf13/cobra"
)

type monitorFlags struct {
	stationFlags
	replay   string
	iface    string
	record   string
	tui      bool
	hideDump bool
	summary  bool
}

func newMonitorCmd() *cobra.Command {
	flags := &monitorFlags{}
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Decode every frame on the line",
		Long: `Puts the interface in monitor mode and prints one line per frame. Runs of
acknowledgements are collapsed into a count. Frames can be replayed from or
recorded to a pcap file.`,
		Example: `  # Watch the line in a scrolling view
  econetd monitor --tui

  # Watch AUN stations from another host on the same segment
  econetd monitor --iface eth0 --config econet.yaml

  # Decode a capture and print per-station counts
  econetd monitor --replay line.pcap --summary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			return app.RunMonitor(app.MonitorOptions{
				ConfigPath: flags.configPath,
				Station:    flags.station,
				Backend:    flags.backend,
				Listen:     flags.listen,
				Replay:     flags.replay,
				Iface:      flags.iface,
				Record:     flags.record,
				TUI:        flags.tui,
				HideDump:   flags.hideDump,
				Summary:    flags.summary,
				LogLevel:   flags.logLevel,
			})
		},
	}
	registerStationFlags(cmd, &flags.stationFlags)
	cmd.Flags().StringVar(&flags.replay, "replay", "", "Read frames from a pcap file instead of the network")
	cmd.Flags().StringVar(&flags.iface, "iface", "", "Sniff AUN datagrams on this network interface (needs libpcap)")
	cmd.Flags().StringVar(&flags.record, "record", "", "Also write captured frames to a pcap file")
	cmd.Flags().BoolVar(&flags.tui, "tui", false, "Show frames in an interactive scrolling view")
	cmd.Flags().BoolVar(&flags.hideDump, "hide-dump", false, "Omit hex dumps of data frames")
	cmd.Flags().BoolVar(&flags.summary, "summary", false, "Print per-station traffic counts on exit")
	return cmd
}
