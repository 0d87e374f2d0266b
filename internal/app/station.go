package app

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/acornnet/econetd/internal/adlc"
	"github.com/acornnet/econetd/internal/aun"
	"github.com/acornnet/econetd/internal/config"
	"github.com/acornnet/econetd/internal/econet"
	"github.com/acornnet/econetd/internal/errors"
	"github.com/acornnet/econetd/internal/hw"
	"github.com/acornnet/econetd/internal/link"
	"github.com/acornnet/econetd/internal/logging"
	"github.com/acornnet/econetd/internal/metrics"
)

// StationOptions configures OpenStation.
type StationOptions struct {
	Config  *config.Config
	Logger  *logging.Logger
	Metrics *metrics.Sink
	// Bus is the shared medium for the loopback backend. A new bus is
	// created when nil.
	Bus *adlc.Bus
}

// Station is an open network interface with its link driver.
type Station struct {
	Iface   *adlc.Interface
	Driver  *link.Driver
	Bus     *adlc.Bus // loopback backend only
	Backend string
}

// OpenStation builds the configured backend, attaches a software interface
// to it and programs the interface through the driver's control requests.
func OpenStation(opts StationOptions) (*Station, error) {
	cfg := opts.Config
	self := econet.Address{Net: cfg.Station.Net, Station: cfg.Station.Station}

	st := &Station{Backend: cfg.Hardware.Backend}
	var wire adlc.Wire
	switch cfg.Hardware.Backend {
	case config.BackendLoopback:
		st.Bus = opts.Bus
		if st.Bus == nil {
			st.Bus = adlc.NewBus()
		}
		wire = st.Bus.Attach()
	case config.BackendAUN:
		stations, err := stationTable(cfg)
		if err != nil {
			return nil, err
		}
		w, err := aun.Open(aun.Options{
			Listen:   cfg.AUN.Listen,
			Stations: stations,
			Self:     self,
			Logger:   opts.Logger,
		})
		if err != nil {
			host, port := splitListen(cfg.AUN.Listen)
			return nil, errors.WrapNetworkError(err, host, port)
		}
		wire = w
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Hardware.Backend)
	}

	st.Iface = adlc.New(wire, adlc.Options{
		TxBufferSize: cfg.Hardware.TxBufferSize,
		RxBufferSize: cfg.Hardware.RxBufferSize,
		Logger:       opts.Logger,
	})
	st.Iface.Start()
	st.Driver = link.NewDriver(st.Iface, link.Options{
		Timeout: time.Duration(cfg.Hardware.TxTimeoutMs) * time.Millisecond,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})

	ct := hw.NewClockTerm(uint8(cfg.Hardware.ClockDivider), cfg.Hardware.ClockEnable, cfg.Hardware.Termination)
	for _, req := range []hw.Request{
		hw.ReqSetAddr.With(uint32(self.Word())),
		hw.ReqSetClkTerm.With(uint32(ct)),
	} {
		if err := st.Driver.Ioctl(req, nil); err != nil {
			st.Close()
			return nil, fmt.Errorf("configure interface: %w", err)
		}
	}
	return st, nil
}

// Close stops the interface and releases the wire.
func (s *Station) Close() error {
	return s.Iface.Close()
}

// stationTable merges the stations file with the inline table. Inline
// entries win.
func stationTable(cfg *config.Config) ([]aun.Station, error) {
	var stations []aun.Station
	if cfg.AUN.StationsFile != "" {
		loaded, err := aun.LoadStations(cfg.AUN.StationsFile)
		if err != nil {
			return nil, err
		}
		stations = loaded
	}
	index := make(map[econet.Address]int, len(stations))
	for i, s := range stations {
		index[s.Addr] = i
	}
	for _, s := range cfg.AUN.Stations {
		entry := aun.Station{
			Addr: econet.Address{Net: s.Net, Station: s.Station},
			Host: s.Host,
			Port: s.Port,
		}
		if i, ok := index[entry.Addr]; ok {
			stations[i] = entry
			continue
		}
		index[entry.Addr] = len(stations)
		stations = append(stations, entry)
	}
	return stations, nil
}

// loadConfig reads path, or returns the default config when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.CreateDefaultConfig(), nil
	}
	return config.LoadConfig(path)
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	logger, err := logging.NewLoggerWithOptions(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.LogFile, cfg.Logging.Format, cfg.Logging.LogEveryN)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

func splitListen(listen string) (string, int) {
	host, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return listen, 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}
