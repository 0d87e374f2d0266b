package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/acornnet/econetd/internal/monitor"
)

// MaxLines bounds the scrollback kept by the monitor view.
const MaxLines = 5000

// captureMsg carries one decoded frame from the watcher.
type captureMsg monitor.Capture

// sourceDoneMsg is sent when the capture channel closes.
type sourceDoneMsg struct{}

// waitForCapture reads the next capture. The command is re-issued after
// each message so the channel is drained one frame at a time.
func waitForCapture(ch <-chan monitor.Capture) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return sourceDoneMsg{}
		}
		return captureMsg(c)
	}
}

type monitorLine struct {
	time time.Time
	text string
}

// MonitorModel is a scrolling view of decoded frames.
type MonitorModel struct {
	styles   Styles
	title    string
	captures <-chan monitor.Capture

	lines   []monitorLine
	cursor  int
	follow  bool
	frames  int
	dropped int
	done    bool
	status  string

	width  int
	height int
}

// NewMonitorModel creates a monitor view fed by captures.
func NewMonitorModel(title string, captures <-chan monitor.Capture) *MonitorModel {
	return &MonitorModel{
		styles:   DefaultStyles,
		title:    title,
		captures: captures,
		follow:   true,
		width:    100,
		height:   30,
	}
}

func (m *MonitorModel) Init() tea.Cmd {
	return waitForCapture(m.captures)
}

func (m *MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case captureMsg:
		m.add(monitor.Capture(msg))
		return m, waitForCapture(m.captures)

	case sourceDoneMsg:
		m.done = true
		m.status = "capture ended"
		return m, nil

	case clipboardCopyMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.status = "copied: " + msg.content
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *MonitorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.follow = false
	case "down", "j":
		if m.cursor < len(m.lines)-1 {
			m.cursor++
		}
	case "pgup":
		m.cursor = max(0, m.cursor-m.bodyHeight())
		m.follow = false
	case "pgdown":
		m.cursor = min(len(m.lines)-1, m.cursor+m.bodyHeight())
	case "g", "home":
		m.cursor = 0
		m.follow = false
	case "G", "end":
		m.cursor = len(m.lines) - 1
		m.follow = true
	case "f":
		m.follow = !m.follow
		if m.follow {
			m.cursor = len(m.lines) - 1
		}
	case "c":
		if line, ok := m.Selected(); ok {
			return m, copyToClipboard(line)
		}
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m, nil
}

func (m *MonitorModel) add(c monitor.Capture) {
	if c.Frame != nil {
		m.frames++
	}
	for _, text := range c.Lines {
		m.lines = append(m.lines, monitorLine{time: c.Time, text: text})
	}
	if over := len(m.lines) - MaxLines; over > 0 {
		m.lines = append(m.lines[:0:0], m.lines[over:]...)
		m.dropped += over
		m.cursor -= over
		if m.cursor < 0 {
			m.cursor = 0
		}
	}
	if m.follow && len(m.lines) > 0 {
		m.cursor = len(m.lines) - 1
	}
}

// Selected returns the line under the cursor.
func (m *MonitorModel) Selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.lines) {
		return "", false
	}
	return m.lines[m.cursor].text, true
}

// Frames returns the number of frames received.
func (m *MonitorModel) Frames() int {
	return m.frames
}

func (m *MonitorModel) bodyHeight() int {
	// title, box border, footer and status
	h := m.height - 6
	if h < 1 {
		h = 1
	}
	return h
}

func (m *MonitorModel) View() string {
	var b strings.Builder

	state := "live"
	if m.done {
		state = "ended"
	}
	if !m.follow {
		state += ", paused"
	}
	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString(m.styles.Dim.Render(fmt.Sprintf("  %d frames, %d lines (%s)", m.frames, len(m.lines), state)))
	b.WriteString("\n")

	height := m.bodyHeight()
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := min(len(m.lines), start+height)

	var body strings.Builder
	for i := start; i < end; i++ {
		l := m.lines[i]
		text := l.time.Format("15:04:05.000") + "  " + strings.ReplaceAll(l.text, "\t", "  ")
		if w := m.width - 4; w > 0 && len(text) > w {
			text = text[:w]
		}
		if i == m.cursor {
			body.WriteString(m.styles.Cursor.Render(text))
		} else {
			body.WriteString(m.styles.Line(l.text).Render(text))
		}
		if i < end-1 {
			body.WriteString("\n")
		}
	}
	if len(m.lines) == 0 {
		body.WriteString(m.styles.Dim.Render("waiting for frames..."))
	}
	b.WriteString(m.styles.Box.Width(max(m.width-2, 20)).Render(body.String()))
	b.WriteString("\n")

	keys := []struct{ key, hint string }{
		{"↑/↓", "scroll"}, {"f", "follow"}, {"c", "copy"}, {"q", "quit"},
	}
	for i, k := range keys {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(m.styles.Key.Render(k.key) + " " + m.styles.Hint.Render(k.hint))
	}
	if m.status != "" {
		b.WriteString("\n" + m.styles.Footer.Render(m.status))
	}
	return b.String()
}
