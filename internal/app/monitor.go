package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/acornnet/econetd/internal/adlc"
	"github.com/acornnet/econetd/internal/capture"
	"github.com/acornnet/econetd/internal/config"
	"github.com/acornnet/econetd/internal/econet"
	"github.com/acornnet/econetd/internal/errors"
	"github.com/acornnet/econetd/internal/hw"
	"github.com/acornnet/econetd/internal/metrics"
	"github.com/acornnet/econetd/internal/monitor"
	"github.com/acornnet/econetd/internal/tui"
)

// MonitorOptions are the monitor command's settings.
type MonitorOptions struct {
	ConfigPath string
	Station    string
	Backend    string
	Listen     string
	Replay     string // read frames from this pcap instead of the network
	Iface      string // sniff AUN traffic on this interface instead of joining it
	Record     string // also write captured frames here
	TUI        bool
	HideDump   bool
	Summary    bool // print per-station traffic counts at the end
	LogLevel   string
	Bus        *adlc.Bus // loopback backend only
}

func RunMonitor(opts MonitorOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !opts.TUI {
		return Monitor(ctx, opts, os.Stdout)
	}

	captures := make(chan monitor.Capture, 256)
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		defer close(captures)
		done <- watch(ctx, opts, func(c monitor.Capture) error {
			select {
			case captures <- c:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}, io.Discard)
	}()

	title := "econetd monitor"
	if opts.Replay != "" {
		title += " - " + opts.Replay
	}
	err := tui.RunMonitor(title, captures)
	cancel()
	if werr := <-done; err == nil {
		err = werr
	}
	return err
}

// Monitor prints decoded frames to out until the source ends or ctx is done.
func Monitor(ctx context.Context, opts MonitorOptions, out io.Writer) error {
	return watch(ctx, opts, func(c monitor.Capture) error {
		for _, line := range c.Lines {
			if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
		}
		return nil
	}, out)
}

func watch(ctx context.Context, opts MonitorOptions, fn func(monitor.Capture) error, out io.Writer) error {
	w := &monitor.Watcher{Decoder: monitor.NewDecoder()}
	w.Decoder.HideDump = opts.HideDump

	src, closeSrc, err := openSource(opts)
	if err != nil {
		return err
	}
	defer closeSrc()
	w.Source = src

	if opts.Record != "" {
		rec, err := monitor.CreatePcap(opts.Record)
		if err != nil {
			return err
		}
		defer func() {
			rec.Close()
			fmt.Fprintf(out, "%d frames written to %s\n", rec.Count(), opts.Record)
		}()
		w.Record = rec
	}

	sink := metrics.NewSink()
	err = w.Run(ctx, func(c monitor.Capture) error {
		recordCapture(sink, c)
		return fn(c)
	})
	if ctx.Err() != nil {
		err = nil
	}
	if opts.Summary {
		fmt.Fprint(out, "\n"+metrics.FormatSummary(sink.GetSummary()))
	}
	return err
}

// openSource picks the frame source: a capture file, a passive sniff of AUN
// datagrams, or a station in monitor mode.
func openSource(opts MonitorOptions) (monitor.Source, func(), error) {
	if opts.Replay != "" {
		r, err := monitor.OpenPcap(opts.Replay)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if err := applyFileServerOverrides(cfg, FileServerOptions{
		Station:  opts.Station,
		Backend:  opts.Backend,
		Listen:   opts.Listen,
		LogLevel: opts.LogLevel,
	}); err != nil {
		return nil, nil, err
	}

	if opts.Iface != "" {
		live, err := capture.OpenLive(opts.Iface, aunPorts(cfg))
		if err != nil {
			return nil, nil, fmt.Errorf("capture on %s: %w", opts.Iface, err)
		}
		return live, func() { live.Close() }, nil
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, nil, errors.WrapConfigError(err, opts.ConfigPath)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := OpenStation(StationOptions{Config: cfg, Logger: logger, Bus: opts.Bus})
	if err != nil {
		logger.Close()
		return nil, nil, err
	}
	closeAll := func() {
		st.Close()
		logger.Close()
	}
	if err := st.Driver.Ioctl(hw.ReqSetMonitor.With(1), nil); err != nil {
		closeAll()
		return nil, nil, err
	}
	return st.Driver, closeAll, nil
}

// aunPorts returns the UDP ports of the configured AUN stations and the
// listen address.
func aunPorts(cfg *config.Config) []int {
	var ports []int
	for _, st := range cfg.AUN.Stations {
		ports = append(ports, st.Port)
	}
	if _, port := splitListen(cfg.AUN.Listen); port > 0 {
		ports = append(ports, port)
	}
	return ports
}

// recordCapture counts a captured frame against its source station.
func recordCapture(sink *metrics.Sink, c monitor.Capture) {
	if c.Frame == nil {
		return
	}
	m := metrics.Metric{
		Timestamp: c.Time,
		Operation: metrics.OperationMonitor,
		Bytes:     len(c.Frame),
		Success:   true,
		Outcome:   metrics.OutcomeDone,
	}
	raw := econet.RawFrame(c.Frame)
	if hdr, err := raw.Header(); err == nil {
		m.Station = hdr.Src.String()
		kind, _ := raw.Kind()
		m.Function = kind.String()
	} else {
		m.Success = false
		m.Outcome = metrics.OutcomeRejected
	}
	if d, err := raw.Data(); err == nil {
		m.Port = uint8(d.Port)
	} else if s, err := raw.Scout(); err == nil {
		m.Port = uint8(s.Port)
	}
	sink.Record(m)
}
