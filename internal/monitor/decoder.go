package monitor

// Frame decoder for the line monitor.
//
// Each captured frame becomes one or more display lines. Runs of identical
// acks (same address header) are collapsed: the first is shown, the rest are
// counted and summarised when a different frame arrives.

import (
	"fmt"

	"github.com/acornnet/econetd/internal/econet"
)

// MinDecodable is the smallest frame the decoder will interpret; anything
// shorter is reported as weird.
const MinDecodable = econet.HeaderSize + 2

// AckRun tracks a run of identical acks.
type AckRun struct {
	Header [econet.HeaderSize]byte
	Count  uint16
}

// Decoder turns captured frames into display lines. It is not safe for
// concurrent use.
type Decoder struct {
	run AckRun
	// HideDump suppresses payload hex dumps.
	HideDump bool
}

// NewDecoder creates a decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Run returns the current ack run.
func (d *Decoder) Run() AckRun {
	return d.run
}

// Flush ends the current ack run, returning its summary line if more than
// one ack was seen.
func (d *Decoder) Flush() []string {
	var lines []string
	if d.run.Count > 1 {
		lines = append(lines, fmt.Sprintf("%d acks received", d.run.Count))
	}
	d.run = AckRun{}
	return lines
}

// Decode decodes one frame (FCS included).
func (d *Decoder) Decode(frame []byte) []string {
	if len(frame) < MinDecodable {
		lines := d.Flush()
		return append(lines, fmt.Sprintf("weird %d byte frame", len(frame)))
	}

	raw := econet.RawFrame(frame)
	kind, _ := raw.Kind()
	hdr, _ := raw.Header()

	if kind == econet.KindAck {
		word := hdr.Word()
		if d.run.Count > 0 && word == d.run.Header {
			if d.run.Count < ^uint16(0) {
				d.run.Count++
			}
			return nil
		}
		lines := d.Flush()
		d.run = AckRun{Header: word, Count: 1}
		return append(lines, hdr.String()+"\tack")
	}

	lines := d.Flush()
	prefix := hdr.String() + "\t"
	switch kind {
	case econet.KindScout:
		s, _ := raw.Scout()
		lines = append(lines, prefix+fmt.Sprintf("SCOUT: ctl %02x port %02x", s.Control, uint8(s.Port)))
	case econet.KindImmediateScout:
		s, _ := raw.ImmediateScout()
		lines = append(lines, prefix+fmt.Sprintf("IMM: %02x %s", uint8(s.Op), s.Op))
	case econet.KindBroadcast:
		body := raw.Body()
		if len(body) < 2 {
			lines = append(lines, prefix+fmt.Sprintf("BCAST: len %d", len(body)))
			break
		}
		lines = append(lines, prefix+fmt.Sprintf("BCAST: ctl %02x port %02x len %d", body[0], body[1], len(body)-2))
		if !d.HideDump {
			lines = append(lines, BoundedDump(body[2:])...)
		}
	default:
		body := raw.Body()
		lines = append(lines, prefix+fmt.Sprintf("DATA: len %d", len(body)))
		if !d.HideDump {
			lines = append(lines, BoundedDump(body)...)
		}
	}
	return lines
}
