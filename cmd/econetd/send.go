package main

import (
	"time"

	"github.com/acornnet/econetd/internal/app"
	"github.com/spf13/cobra"
)

type sendFlags struct {
	stationFlags
	dest      string
	port      int
	data      string
	hex       string
	netfs     string
	replyPort int
	wait      time.Duration
	count     int
	interval  time.Duration
}

func newSendCmd() *cobra.Command {
	flags := &sendFlags{}
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to another station",
		Long: `Transmits a four-way handshake message to a station and reports the
outcome. With --netfs the text is sent as a NetFS command line to port 0x99
and the reply is printed.`,
		Example: `  # Ask the file server at 0.254 to echo
  econetd send --dest 254 --netfs echo

  # Send raw bytes to port 0x54 ten times
  econetd send --dest 1.20 --port 0x54 --hex "01 02 03" --count 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if flags.dest == "" {
				return missingFlagError(cmd, "--dest")
			}
			return app.RunSend(app.SendOptions{
				ConfigPath: flags.configPath,
				Station:    flags.station,
				Backend:    flags.backend,
				Listen:     flags.listen,
				Dest:       flags.dest,
				Port:       flags.port,
				Data:       flags.data,
				Hex:        flags.hex,
				NetFS:      flags.netfs,
				ReplyPort:  flags.replyPort,
				Wait:       flags.wait,
				Count:      flags.count,
				Interval:   flags.interval,
				LogLevel:   flags.logLevel,
			})
		},
	}
	registerStationFlags(cmd, &flags.stationFlags)
	cmd.Flags().StringVar(&flags.dest, "dest", "", "Destination as net.station or station (required)")
	cmd.Flags().IntVar(&flags.port, "port", 0, "Destination port (1-255, accepts 0x prefix)")
	cmd.Flags().StringVar(&flags.data, "data", "", "Text payload")
	cmd.Flags().StringVar(&flags.hex, "hex", "", "Hex payload")
	cmd.Flags().StringVar(&flags.netfs, "netfs", "", "Send as a NetFS command line")
	cmd.Flags().IntVar(&flags.replyPort, "reply-port", 0, "Wait for a reply on this port")
	cmd.Flags().DurationVar(&flags.wait, "wait", 2*time.Second, "How long to wait for a reply")
	cmd.Flags().IntVar(&flags.count, "count", 1, "Number of messages to send")
	cmd.Flags().DurationVar(&flags.interval, "interval", 0, "Delay between messages")
	return cmd
}
