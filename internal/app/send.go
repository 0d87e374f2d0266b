package app

import (
	"context"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/acornnet/econetd/internal/adlc"
	"github.com/acornnet/econetd/internal/config"
	"github.com/acornnet/econetd/internal/econet"
	"github.com/acornnet/econetd/internal/errors"
	"github.com/acornnet/econetd/internal/hw"
	"github.com/acornnet/econetd/internal/metrics"
	"github.com/acornnet/econetd/internal/monitor"
	"github.com/acornnet/econetd/internal/netfs"
)

// DefaultReplyPort is where NetFS replies are requested.
const DefaultReplyPort = 0x90

// SendOptions are the send command's settings.
type SendOptions struct {
	ConfigPath string
	Station    string // overrides the configured own address
	Backend    string
	Listen     string
	Dest       string // "net.station" or "station"
	Port       int
	Data       string // text payload
	Hex        string // hex payload, used when Data is empty
	NetFS      string // sent as a NetFS command line; implies Port 0x99
	ReplyPort  int    // wait for a reply here when non-zero
	Wait       time.Duration
	Count      int
	Interval   time.Duration
	LogLevel   string
	Bus        *adlc.Bus // loopback backend only
}

func RunSend(opts SendOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Send(ctx, opts, os.Stdout)
}

// Send transmits opts.Count messages and prints each outcome to out.
func Send(ctx context.Context, opts SendOptions, out io.Writer) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := applyFileServerOverrides(cfg, FileServerOptions{
		Station:  opts.Station,
		Backend:  opts.Backend,
		Listen:   opts.Listen,
		LogLevel: opts.LogLevel,
	}); err != nil {
		return err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return errors.WrapConfigError(err, opts.ConfigPath)
	}

	dest, err := econet.ParseAddress(opts.Dest)
	if err != nil {
		return err
	}
	if opts.NetFS != "" {
		if opts.Port == 0 {
			opts.Port = int(econet.PortNetFS)
		}
		if opts.ReplyPort == 0 {
			opts.ReplyPort = DefaultReplyPort
		}
	}
	if opts.Port < 1 || opts.Port > 255 {
		return fmt.Errorf("port must be between 1 and 255, got %d", opts.Port)
	}
	if opts.Count <= 0 {
		opts.Count = 1
	}
	if opts.Wait <= 0 {
		opts.Wait = time.Second
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	sink := metrics.NewSink()
	st, err := OpenStation(StationOptions{Config: cfg, Logger: logger, Metrics: sink, Bus: opts.Bus})
	if err != nil {
		return err
	}
	defer st.Close()

	payload, err := sendPayload(opts, st.Driver.Address())
	if err != nil {
		return err
	}

	f := st.Driver.Open()
	defer f.Close()
	to := econet.EconetAddress{Port: econet.Port(opts.Port), Net: dest.Net, Station: dest.Station}
	if err := f.Ioctl(hw.ReqSetSendAddr, &to); err != nil {
		return err
	}
	if opts.ReplyPort != 0 {
		if err := f.Ioctl(hw.ReqSetRecvPort.With(uint32(opts.ReplyPort)), nil); err != nil {
			return fmt.Errorf("listen for replies on port %02x: %w", opts.ReplyPort, err)
		}
	}

	var lastErr error
	reply := make([]byte, netfs.MaxRequest)
	for i := 0; i < opts.Count; i++ {
		if i > 0 && opts.Interval > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(opts.Interval):
			}
		}

		n, err := f.WriteContext(ctx, payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			lastErr = errors.WrapLinkError(err, to.String())
			fmt.Fprintf(out, "send %d: %v\n", i+1, lastErr)
			continue
		}
		fmt.Fprintf(out, "send %d: %d bytes to %s\n", i+1, n, to)

		if opts.ReplyPort == 0 {
			continue
		}
		rctx, cancel := context.WithTimeout(ctx, opts.Wait)
		n, err = f.ReadContext(rctx, reply)
		cancel()
		if err != nil {
			if stderrors.Is(err, context.DeadlineExceeded) {
				fmt.Fprintf(out, "  no reply within %s\n", opts.Wait)
				continue
			}
			return err
		}
		printReply(out, reply[:n], opts.NetFS != "")
	}

	summary := sink.GetSummary()
	if opts.Count > 1 {
		fmt.Fprint(out, "\n"+metrics.FormatSummary(summary))
	}
	if summary.SuccessfulOps == 0 {
		return lastErr
	}
	return nil
}

func sendPayload(opts SendOptions, self econet.Address) ([]byte, error) {
	switch {
	case opts.NetFS != "":
		return netfs.AppendMessage(nil, netfs.Message{
			ReplyAddr: econet.EconetAddress{Port: econet.Port(opts.ReplyPort), Net: self.Net, Station: self.Station},
			Function:  netfs.FcCommandLine,
			Payload:   []byte(opts.NetFS + "\r"),
		}), nil
	case opts.Data != "":
		return []byte(opts.Data), nil
	case opts.Hex != "":
		b, err := hex.DecodeString(strings.ReplaceAll(opts.Hex, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("parse hex payload: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("nothing to send: set data, hex or a NetFS command")
	}
}

func printReply(out io.Writer, reply []byte, isNetFS bool) {
	if isNetFS && len(reply) >= 2 {
		text := strings.TrimRight(string(reply[2:]), "\r\x00")
		fmt.Fprintf(out, "  reply: code %02x result %02x %q\n", reply[0], reply[1], text)
	} else {
		fmt.Fprintf(out, "  reply: %d bytes\n", len(reply))
	}
	for _, line := range monitor.HexDump(reply, 16) {
		fmt.Fprintf(out, "    %s\n", line)
	}
}
