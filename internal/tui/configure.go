package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/acornnet/econetd/internal/config"
)

// StationSettings are the values edited by the configure form.
type StationSettings struct {
	Net          int
	Station      int
	ClockDivider int
	ClockEnable  bool
	Termination  bool
}

// ConfigureForm edits station settings interactively.
type ConfigureForm struct {
	Form *huh.Form

	net     string
	station string
	divider string
	clock   bool
	term    bool
}

// NewConfigureForm builds a form seeded with initial.
func NewConfigureForm(initial StationSettings) *ConfigureForm {
	f := &ConfigureForm{
		net:     strconv.Itoa(initial.Net),
		station: strconv.Itoa(initial.Station),
		divider: strconv.Itoa(initial.ClockDivider),
		clock:   initial.ClockEnable,
		term:    initial.Termination,
	}

	f.Form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Network number").
				Description("0 for the local network.").
				Key("net").
				Validate(validateByte).
				Value(&f.net),
			huh.NewInput().
				Title("Station number").
				Description("1 to 254.").
				Key("station").
				Validate(func(s string) error {
					n, err := parseNumber(s)
					if err != nil {
						return err
					}
					return config.ValidateStation(n)
				}).
				Value(&f.station),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Clock divider").
				Description("1 to 7.").
				Key("clock_divider").
				Validate(func(s string) error {
					n, err := parseNumber(s)
					if err != nil {
						return err
					}
					return config.ValidateClockDivider(n)
				}).
				Value(&f.divider),
			huh.NewConfirm().
				Title("Drive the network clock?").
				Key("clock_enable").
				Value(&f.clock),
			huh.NewConfirm().
				Title("Switch in line termination?").
				Key("termination").
				Value(&f.term),
		),
	)
	return f
}

// Run shows the form and returns the edited settings.
func (f *ConfigureForm) Run() (StationSettings, error) {
	if err := f.Form.Run(); err != nil {
		return StationSettings{}, err
	}
	return f.Settings()
}

// Settings parses the current field values.
func (f *ConfigureForm) Settings() (StationSettings, error) {
	var s StationSettings
	var err error
	if s.Net, err = parseNumber(f.net); err != nil {
		return s, fmt.Errorf("net: %w", err)
	}
	if err := validateByte(f.net); err != nil {
		return s, fmt.Errorf("net: %w", err)
	}
	if s.Station, err = parseNumber(f.station); err != nil {
		return s, fmt.Errorf("station: %w", err)
	}
	if err := config.ValidateStation(s.Station); err != nil {
		return s, err
	}
	if s.ClockDivider, err = parseNumber(f.divider); err != nil {
		return s, fmt.Errorf("clock divider: %w", err)
	}
	if err := config.ValidateClockDivider(s.ClockDivider); err != nil {
		return s, err
	}
	s.ClockEnable = f.clock
	s.Termination = f.term
	return s, nil
}

func parseNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return n, nil
}

func validateByte(s string) error {
	n, err := parseNumber(s)
	if err != nil {
		return err
	}
	if n < 0 || n > 255 {
		return fmt.Errorf("must be between 0 and 255, got %d", n)
	}
	return nil
}
