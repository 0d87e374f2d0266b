package config

// Configuration loading and validation for econetd

import (
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/acornnet/econetd/internal/errors"
)

// Backend names.
const (
	BackendAUN      = "aun"
	BackendLoopback = "loopback"
)

// Defaults.
const (
	DefaultTxTimeoutMs  = 100
	DefaultClockDivider = 3
	DefaultBufferSize   = 512
	DefaultAUNListen    = "0.0.0.0:32768"
	DefaultNetFSPort    = 0x99
)

// StationSection is this node's own address.
type StationSection struct {
	Net     uint8 `yaml:"net"`
	Station uint8 `yaml:"station"`
}

// HardwareSection configures the software network interface.
type HardwareSection struct {
	Backend      string `yaml:"backend"` // "aun" or "loopback"
	TxTimeoutMs  int    `yaml:"tx_timeout_ms"`
	ClockDivider int    `yaml:"clock_divider"`
	ClockEnable  bool   `yaml:"clock_enable"`
	Termination  bool   `yaml:"termination"`
	TxBufferSize int    `yaml:"tx_buffer_size"`
	RxBufferSize int    `yaml:"rx_buffer_size"`
}

// AUNStation is one inline station table entry.
type AUNStation struct {
	Net     uint8  `yaml:"net"`
	Station uint8  `yaml:"station"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// AUNSection configures the UDP backend.
type AUNSection struct {
	Listen       string       `yaml:"listen"`
	StationsFile string       `yaml:"stations_file,omitempty"` // b-em format: net station host port
	Stations     []AUNStation `yaml:"stations,omitempty"`
}

// NetFSSection configures the fileserver.
type NetFSSection struct {
	Port        int   `yaml:"port"`
	NackUnknown bool  `yaml:"nack_unknown"` // reply "Bad command" instead of staying silent
	URD         uint8 `yaml:"urd"`
	CSD         uint8 `yaml:"csd"`
	LIB         uint8 `yaml:"lib"`
	BootOption  uint8 `yaml:"boot_option"`
}

// LoggingSection controls log formatting and verbosity.
type LoggingSection struct {
	Level     string `yaml:"level,omitempty"`  // "error","info","verbose","debug"
	Format    string `yaml:"format,omitempty"` // "text" or "json"
	LogEveryN int    `yaml:"log_every_n,omitempty"`
	LogFile   string `yaml:"log_file,omitempty"`
}

// MetricsSection controls metrics output.
type MetricsSection struct {
	CSVFile  string `yaml:"csv_file,omitempty"`
	JSONFile string `yaml:"json_file,omitempty"`
}

// Config is the station configuration
type Config struct {
	Station  StationSection  `yaml:"station"`
	Hardware HardwareSection `yaml:"hardware"`
	AUN      AUNSection      `yaml:"aun"`
	NetFS    NetFSSection    `yaml:"netfs"`
	Logging  LoggingSection  `yaml:"logging"`
	Metrics  MetricsSection  `yaml:"metrics"`
}

// CreateDefaultConfig returns a config for a fileserver at station 254 on
// the local network, reachable over AUN.
func CreateDefaultConfig() *Config {
	cfg := &Config{
		Station: StationSection{Net: 0, Station: 254},
		AUN: AUNSection{
			Stations: []AUNStation{
				{Net: 0, Station: 254, Host: "127.0.0.1", Port: 32768},
				{Net: 0, Station: 101, Host: "127.0.0.1", Port: 32769},
			},
		},
		NetFS: NetFSSection{URD: 3, CSD: 5, LIB: 6},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Hardware.Backend == "" {
		cfg.Hardware.Backend = BackendAUN
	}
	if cfg.Hardware.TxTimeoutMs == 0 {
		cfg.Hardware.TxTimeoutMs = DefaultTxTimeoutMs
	}
	if cfg.Hardware.ClockDivider == 0 {
		cfg.Hardware.ClockDivider = DefaultClockDivider
	}
	if cfg.Hardware.TxBufferSize == 0 {
		cfg.Hardware.TxBufferSize = DefaultBufferSize
	}
	if cfg.Hardware.RxBufferSize == 0 {
		cfg.Hardware.RxBufferSize = DefaultBufferSize
	}
	if cfg.AUN.Listen == "" {
		cfg.AUN.Listen = DefaultAUNListen
	}
	if cfg.NetFS.Port == 0 {
		cfg.NetFS.Port = DefaultNetFSPort
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.LogEveryN == 0 {
		cfg.Logging.LogEveryN = 1
	}
}

// WriteConfig writes cfg as YAML.
func WriteConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// LoadConfig loads a configuration from a YAML file, applies defaults and
// validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapConfigError(fmt.Errorf("config file not found: %s", path), path)
		}
		return nil, errors.WrapConfigError(fmt.Errorf("read config file: %w", err), path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("parse YAML: %w", err), path)
	}
	ApplyDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("validate config: %w", err), path)
	}
	return &cfg, nil
}

// ValidateConfig validates a configuration. Defaults must already be
// applied.
func ValidateConfig(cfg *Config) error {
	if err := ValidateStation(int(cfg.Station.Station)); err != nil {
		return fmt.Errorf("station.station: %w", err)
	}

	switch cfg.Hardware.Backend {
	case BackendAUN, BackendLoopback:
	default:
		return fmt.Errorf("hardware.backend must be '%s' or '%s', got '%s'", BackendAUN, BackendLoopback, cfg.Hardware.Backend)
	}
	if cfg.Hardware.TxTimeoutMs < 0 {
		return fmt.Errorf("hardware.tx_timeout_ms must be >= 0")
	}
	if err := ValidateClockDivider(cfg.Hardware.ClockDivider); err != nil {
		return fmt.Errorf("hardware.clock_divider: %w", err)
	}
	// A buffer must hold a scout and a data frame with at least a header.
	if cfg.Hardware.TxBufferSize < 32 || cfg.Hardware.RxBufferSize < 32 {
		return fmt.Errorf("hardware buffer sizes must be >= 32")
	}

	if cfg.Hardware.Backend == BackendAUN {
		if _, _, err := net.SplitHostPort(cfg.AUN.Listen); err != nil {
			return fmt.Errorf("aun.listen: %w", err)
		}
		seen := make(map[[2]uint8]int)
		for i, st := range cfg.AUN.Stations {
			if err := validateAUNStation(st, i); err != nil {
				return err
			}
			key := [2]uint8{st.Net, st.Station}
			if prev, ok := seen[key]; ok {
				return fmt.Errorf("aun.stations[%d]: station %d.%d already defined at index %d", i, st.Net, st.Station, prev)
			}
			seen[key] = i
		}
		if cfg.AUN.StationsFile == "" && len(cfg.AUN.Stations) == 0 {
			return fmt.Errorf("aun backend needs stations or stations_file")
		}
	}

	if cfg.NetFS.Port < 1 || cfg.NetFS.Port > 255 {
		return fmt.Errorf("netfs.port must be between 1 and 255, got %d", cfg.NetFS.Port)
	}

	if cfg.Logging.Level != "" {
		switch strings.ToLower(cfg.Logging.Level) {
		case "silent", "error", "info", "verbose", "debug":
		default:
			return fmt.Errorf("logging.level must be silent, error, info, verbose, or debug")
		}
	}
	if cfg.Logging.Format != "" {
		switch strings.ToLower(cfg.Logging.Format) {
		case "text", "json":
		default:
			return fmt.Errorf("logging.format must be text or json")
		}
	}
	if cfg.Logging.LogEveryN < 0 {
		return fmt.Errorf("logging.log_every_n must be >= 0")
	}
	return nil
}

// ValidateStation checks a station number. 0 is the broadcast address and
// 255 is reserved.
func ValidateStation(station int) error {
	if station < 1 || station > 254 {
		return fmt.Errorf("station must be between 1 and 254, got %d", station)
	}
	return nil
}

// ValidateClockDivider checks a clock divider setting.
func ValidateClockDivider(divider int) error {
	if divider < 1 || divider > 7 {
		return fmt.Errorf("clock divider must be between 1 and 7, got %d", divider)
	}
	return nil
}

func validateAUNStation(st AUNStation, index int) error {
	if err := ValidateStation(int(st.Station)); err != nil {
		return fmt.Errorf("aun.stations[%d]: %w", index, err)
	}
	if st.Host == "" {
		return fmt.Errorf("aun.stations[%d]: host is required", index)
	}
	if st.Port < 1 || st.Port > 65535 {
		return fmt.Errorf("aun.stations[%d]: port must be between 1 and 65535, got %d", index, st.Port)
	}
	return nil
}
