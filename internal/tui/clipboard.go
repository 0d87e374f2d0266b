package tui

import (
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// clipboardCopyMsg is sent after a clipboard copy operation.
type clipboardCopyMsg struct {
	content string
	err     error
}

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// copyToClipboard copies text to the system clipboard and reports the result
// as a clipboardCopyMsg.
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardCopyMsg{content: text, err: writeClipboard(text)}
	}
}
