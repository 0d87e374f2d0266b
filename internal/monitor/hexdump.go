package monitor

// Hex dump utilities for frame display

import (
	"fmt"
	"strings"
)

// MaxDump bounds the number of bytes shown for a data frame.
const MaxDump = 256

// HexDump creates a hex dump of data, width bytes per line
func HexDump(data []byte, width int) []string {
	if width <= 0 {
		width = 16
	}

	lines := make([]string, 0, (len(data)+width-1)/width)
	for i := 0; i < len(data); i += width {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%04x: ", i)

		for j := 0; j < width; j++ {
			if i+j < len(data) {
				fmt.Fprintf(&sb, "%02x ", data[i+j])
			} else {
				sb.WriteString("   ")
			}
		}

		sb.WriteString(" |")
		for j := 0; j < width && i+j < len(data); j++ {
			b := data[i+j]
			if b >= 32 && b < 127 {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|")
		lines = append(lines, sb.String())
	}
	return lines
}

// BoundedDump dumps at most MaxDump bytes of data and notes any truncation.
func BoundedDump(data []byte) []string {
	if len(data) <= MaxDump {
		return HexDump(data, 16)
	}
	lines := HexDump(data[:MaxDump], 16)
	return append(lines, fmt.Sprintf("... %d more bytes", len(data)-MaxDump))
}
