package app

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/acornnet/econetd/internal/config"
	"github.com/acornnet/econetd/internal/econet"
	"github.com/acornnet/econetd/internal/errors"
	"github.com/acornnet/econetd/internal/hw"
	"github.com/acornnet/econetd/internal/tui"
)

// Configuration items.
const (
	ItemNetStation   = "netstation"
	ItemNetClock     = "netclock"
	ItemNetTerminate = "netterminate"
)

// ConfigureOptions are the configure command's settings.
type ConfigureOptions struct {
	ConfigPath  string
	Item        string
	Args        []string
	Interactive bool
	Write       bool
}

func RunConfigure(opts ConfigureOptions) error {
	return Configure(opts, os.Stdout)
}

// Configure applies one configuration item (or the interactive form) to the
// config, checks the result against a software interface and optionally
// writes it back.
func Configure(opts ConfigureOptions, out io.Writer) error {
	cfg, err := loadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	switch {
	case opts.Item != "":
		if err := applyItem(cfg, opts.Item, opts.Args); err != nil {
			return err
		}
	case opts.Interactive:
		form := tui.NewConfigureForm(tui.StationSettings{
			Net:          int(cfg.Station.Net),
			Station:      int(cfg.Station.Station),
			ClockDivider: cfg.Hardware.ClockDivider,
			ClockEnable:  cfg.Hardware.ClockEnable,
			Termination:  cfg.Hardware.Termination,
		})
		s, err := form.Run()
		if err != nil {
			return err
		}
		cfg.Station.Net = uint8(s.Net)
		cfg.Station.Station = uint8(s.Station)
		cfg.Hardware.ClockDivider = s.ClockDivider
		cfg.Hardware.ClockEnable = s.ClockEnable
		cfg.Hardware.Termination = s.Termination
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return errors.WrapConfigError(err, opts.ConfigPath)
	}
	if err := describeInterface(cfg, out); err != nil {
		return err
	}

	if opts.Write {
		if opts.ConfigPath == "" {
			return fmt.Errorf("--write needs --config")
		}
		if err := config.WriteConfig(opts.ConfigPath, cfg); err != nil {
			return err
		}
		fmt.Fprintf(out, "Config written to: %s\n", opts.ConfigPath)
	}
	return nil
}

// loadOrDefault reads path when it exists so configure can create a file.
func loadOrDefault(path string) (*config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.CreateDefaultConfig(), nil
		}
	}
	return loadConfig(path)
}

func applyItem(cfg *config.Config, item string, args []string) error {
	switch strings.ToLower(item) {
	case ItemNetStation:
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <station> | <net.station>", ItemNetStation)
		}
		addr, err := econet.ParseAddress(args[0])
		if err != nil {
			return err
		}
		if err := config.ValidateStation(int(addr.Station)); err != nil {
			return err
		}
		cfg.Station.Net, cfg.Station.Station = addr.Net, addr.Station
	case ItemNetClock:
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: %s <divider> [on|off]", ItemNetClock)
		}
		divider, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad clock divider %q", args[0])
		}
		if err := config.ValidateClockDivider(divider); err != nil {
			return err
		}
		enable := true
		if len(args) == 2 {
			if enable, err = parseOnOff(args[1]); err != nil {
				return err
			}
		}
		cfg.Hardware.ClockDivider = divider
		cfg.Hardware.ClockEnable = enable
	case ItemNetTerminate:
		if len(args) != 1 {
			return fmt.Errorf("usage: %s on|off", ItemNetTerminate)
		}
		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		cfg.Hardware.Termination = on
	default:
		return fmt.Errorf("unknown configuration item %q (want %s, %s or %s)", item, ItemNetStation, ItemNetClock, ItemNetTerminate)
	}
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

// describeInterface programs a loopback interface with cfg and prints the
// settings read back through the control requests.
func describeInterface(cfg *config.Config, out io.Writer) error {
	probe := *cfg
	probe.Hardware.Backend = config.BackendLoopback
	st, err := OpenStation(StationOptions{Config: &probe})
	if err != nil {
		return err
	}
	defer st.Close()

	var addr, clkterm uint16
	if err := st.Driver.Ioctl(hw.ReqGetAddr, &addr); err != nil {
		return err
	}
	if err := st.Driver.Ioctl(hw.ReqGetClkTerm, &clkterm); err != nil {
		return err
	}
	var state hw.DebugState
	if err := st.Driver.Ioctl(hw.ReqDebugBuf, &state); err != nil {
		return err
	}

	ct := hw.ClockTerm(clkterm)
	fmt.Fprintf(out, "Station:     %s\n", econet.AddressFromWord(addr))
	fmt.Fprintf(out, "Clock:       divider %d, %s\n", ct.Divider(), onOff(ct.ClockEnabled()))
	fmt.Fprintf(out, "Termination: %s\n", onOff(ct.Terminated()))
	fmt.Fprintf(out, "Backend:     %s\n", cfg.Hardware.Backend)
	fmt.Fprintf(out, "Link state:  %s\n", state.HandshakeState)
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
