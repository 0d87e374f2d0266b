package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/acornnet/econetd/internal/adlc"
	"github.com/acornnet/econetd/internal/config"
	"github.com/acornnet/econetd/internal/econet"
	"github.com/acornnet/econetd/internal/errors"
	"github.com/acornnet/econetd/internal/hw"
	"github.com/acornnet/econetd/internal/link"
	"github.com/acornnet/econetd/internal/logging"
	"github.com/acornnet/econetd/internal/metrics"
	"github.com/acornnet/econetd/internal/netfs"
)

// FileServerOptions are the fileserver command's settings. Non-zero fields
// override the config file.
type FileServerOptions struct {
	ConfigPath   string
	Station      string // "net.station" or "station"
	Backend      string
	Listen       string
	StationsFile string
	NackUnknown  bool
	LogLevel     string
	LogFormat    string
	LogFile      string
	LogEvery     int
	MetricsCSV   string
	MetricsJSON  string
}

// FileServerSetup wires a fileserver onto an already loaded config.
type FileServerSetup struct {
	Config  *config.Config
	Logger  *logging.Logger
	Metrics *metrics.Sink
	Bus     *adlc.Bus
	// OnReady is called once the server is listening.
	OnReady func(st *Station)
}

func RunFileServer(opts FileServerOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := applyFileServerOverrides(cfg, opts); err != nil {
		return err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return errors.WrapConfigError(err, opts.ConfigPath)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	sink := metrics.NewSink()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stdout, "econetd fileserver starting...\n")
	err = ServeFileServer(ctx, FileServerSetup{
		Config:  cfg,
		Logger:  logger,
		Metrics: sink,
		OnReady: func(st *Station) {
			fmt.Fprintf(os.Stdout, "Fileserver listening at %s port %02x (%s backend)\n",
				st.Driver.Address(), cfg.NetFS.Port, st.Backend)
		},
	})

	fmt.Fprintf(os.Stdout, "\nShutting down fileserver...\n")
	fmt.Fprint(os.Stdout, metrics.FormatSummary(sink.GetSummary()))
	if werr := writeMetrics(sink, cfg.Metrics); werr != nil {
		logger.Error("write metrics: %v", werr)
	}
	return err
}

// ServeFileServer runs a fileserver until ctx is done.
func ServeFileServer(ctx context.Context, setup FileServerSetup) error {
	cfg := setup.Config
	st, err := OpenStation(StationOptions{
		Config:  cfg,
		Logger:  setup.Logger,
		Metrics: setup.Metrics,
		Bus:     setup.Bus,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	f := st.Driver.Open()
	defer f.Close()
	if err := f.Ioctl(hw.ReqSetRecvPort.With(uint32(cfg.NetFS.Port)), nil); err != nil {
		return fmt.Errorf("listen on port %02x: %w", cfg.NetFS.Port, err)
	}

	srv := netfs.NewServer(st.Driver, netfs.Options{
		Logger:      setup.Logger,
		Metrics:     setup.Metrics,
		NackUnknown: cfg.NetFS.NackUnknown,
		Port:        econet.Port(cfg.NetFS.Port),
		Handles: netfs.FixedHandles{
			URD:        cfg.NetFS.URD,
			CSD:        cfg.NetFS.CSD,
			LIB:        cfg.NetFS.LIB,
			BootOption: cfg.NetFS.BootOption,
		},
	})

	setup.Logger.LogStartup("fileserver", st.Driver.Address().String(), st.Backend,
		[]string{fmt.Sprintf("%02x", cfg.NetFS.Port)})
	if setup.OnReady != nil {
		setup.OnReady(st)
	}
	return srv.Serve(ctx, fileReceiver{f})
}

// fileReceiver reads requests from a File bound to the fileserver port.
type fileReceiver struct {
	f *link.File
}

func (r fileReceiver) Recv(ctx context.Context, buf []byte) (int, error) {
	return r.f.ReadContext(ctx, buf)
}

func applyFileServerOverrides(cfg *config.Config, opts FileServerOptions) error {
	if opts.Station != "" {
		addr, err := econet.ParseAddress(opts.Station)
		if err != nil {
			return err
		}
		cfg.Station.Net, cfg.Station.Station = addr.Net, addr.Station
	}
	if opts.Backend != "" {
		cfg.Hardware.Backend = opts.Backend
	}
	if opts.Listen != "" {
		cfg.AUN.Listen = opts.Listen
	}
	if opts.StationsFile != "" {
		cfg.AUN.StationsFile = opts.StationsFile
	}
	if opts.NackUnknown {
		cfg.NetFS.NackUnknown = true
	}
	applyLoggingOverrides(cfg, opts.LogLevel, opts.LogFormat, opts.LogFile, opts.LogEvery)
	if opts.MetricsCSV != "" {
		cfg.Metrics.CSVFile = opts.MetricsCSV
	}
	if opts.MetricsJSON != "" {
		cfg.Metrics.JSONFile = opts.MetricsJSON
	}
	return nil
}

func applyLoggingOverrides(cfg *config.Config, level, format, file string, every int) {
	if level != "" {
		cfg.Logging.Level = level
	}
	if format != "" {
		cfg.Logging.Format = format
	}
	if file != "" {
		cfg.Logging.LogFile = file
	}
	if every > 0 {
		cfg.Logging.LogEveryN = every
	}
}

func writeMetrics(sink *metrics.Sink, out config.MetricsSection) error {
	if out.CSVFile == "" && out.JSONFile == "" {
		return nil
	}
	w, err := metrics.NewWriter(out.CSVFile, out.JSONFile)
	if err != nil {
		return err
	}
	if err := w.WriteAll(sink); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	for _, path := range []string{out.CSVFile, out.JSONFile} {
		if path != "" {
			fmt.Fprintf(os.Stdout, "Metrics written to: %s\n", path)
		}
	}
	return nil
}
