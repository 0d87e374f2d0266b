package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette colors the monitor view. Each frame kind gets its own hue so a
// handshake reads as scout, ack, data, ack at a glance.
type Palette struct {
	Background lipgloss.Color
	Text       lipgloss.Color
	Dim        lipgloss.Color
	Border     lipgloss.Color
	Accent     lipgloss.Color

	Scout     lipgloss.Color
	Ack       lipgloss.Color
	Immediate lipgloss.Color
	Broadcast lipgloss.Color
	Malformed lipgloss.Color
}

// DefaultPalette is a dark palette after Tokyo Night.
var DefaultPalette = Palette{
	Background: lipgloss.Color("#1a1b26"),
	Text:       lipgloss.Color("#c0caf5"),
	Dim:        lipgloss.Color("#565f89"),
	Border:     lipgloss.Color("#414868"),
	Accent:     lipgloss.Color("#7aa2f7"),

	Scout:     lipgloss.Color("#7dcfff"),
	Ack:       lipgloss.Color("#9ece6a"),
	Immediate: lipgloss.Color("#e0af68"),
	Broadcast: lipgloss.Color("#bb9af7"),
	Malformed: lipgloss.Color("#f7768e"),
}

// Styles are the rendered styles for one palette.
type Styles struct {
	Title  lipgloss.Style
	Dim    lipgloss.Style
	Cursor lipgloss.Style
	Box    lipgloss.Style
	Key    lipgloss.Style
	Hint   lipgloss.Style
	Footer lipgloss.Style

	kinds map[string]lipgloss.Style
	ack   lipgloss.Style
	data  lipgloss.Style
	other lipgloss.Style
}

// NewStyles derives the styles from p.
func NewStyles(p Palette) Styles {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return Styles{
		Title:  fg(p.Accent).Bold(true).Padding(0, 1),
		Dim:    fg(p.Dim),
		Cursor: lipgloss.NewStyle().Foreground(p.Background).Background(p.Accent),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Key:    fg(p.Accent).Bold(true),
		Hint:   fg(p.Dim),
		Footer: fg(p.Dim),

		kinds: map[string]lipgloss.Style{
			"SCOUT": fg(p.Scout),
			"IMM":   fg(p.Immediate),
			"BCAST": fg(p.Broadcast),
			"weird": fg(p.Malformed),
		},
		ack:   fg(p.Ack),
		data:  fg(p.Text),
		other: fg(p.Dim),
	}
}

// DefaultStyles uses DefaultPalette.
var DefaultStyles = NewStyles(DefaultPalette)

// Line picks the style for a decoded monitor line by the frame kind that
// starts its last tab-separated field.
func (s Styles) Line(line string) lipgloss.Style {
	body := line
	if i := strings.LastIndexByte(line, '\t'); i >= 0 {
		body = line[i+1:]
	}
	kind, _, _ := strings.Cut(body, " ")
	kind = strings.TrimSuffix(kind, ":")
	if st, ok := s.kinds[kind]; ok {
		return st
	}
	switch {
	case strings.HasPrefix(body, "DATA"):
		return s.data
	case body == "ack" || strings.HasSuffix(body, "acks received"):
		return s.ack
	}
	return s.other
}
