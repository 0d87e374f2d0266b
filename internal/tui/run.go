package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/acornnet/econetd/internal/monitor"
)

// RunMonitor shows captures until the user quits. The caller closes
// captures when its source is exhausted.
func RunMonitor(title string, captures <-chan monitor.Capture) error {
	program := tea.NewProgram(NewMonitorModel(title, captures), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
