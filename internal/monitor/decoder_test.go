package monitor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/acornnet/econetd/internal/econet"
)

var (
	stnA = econet.Address{Net: 0, Station: 2}
	stnB = econet.Address{Net: 0, Station: 254}
)

func frame(b []byte) []byte { return econet.AppendFCS(b) }

func TestDecodeKinds(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		first string
		lines int
	}{
		{"scout", frame(econet.AppendScout(nil, stnB, stnA, 0x80, 0x99)), "000.002 > 000.254\tSCOUT: ctl 80 port 99", 1},
		{"immediate", frame(append(econet.AppendAck(nil, stnB, stnA), 0x85, 0x88, 0, 0)), "000.002 > 000.254\tIMM: 88 MachType", 1},
		{"immediate unknown", frame(append(econet.AppendAck(nil, stnB, stnA), 0x85, 0x20, 0, 0)), "000.002 > 000.254\tIMM: 20 Unknown", 1},
		{"ack", frame(econet.AppendAck(nil, stnA, stnB)), "000.254 > 000.002\tack", 1},
		{"data", frame(econet.AppendData(nil, stnB, stnA, 0x80, 0x99, []byte("hello"))), "000.002 > 000.254\tDATA: len 7", 2},
		{"broadcast", frame(econet.AppendData(nil, econet.Address{}, stnA, 0x80, 0x54, []byte("hi"))), "000.002 > 000.000\tBCAST: ctl 80 port 54 len 2", 2},
		{"short broadcast", frame(append(econet.AppendAck(nil, econet.Address{}, stnA), 0x80)), "000.002 > 000.000\tBCAST: len 1", 1},
		{"weird", []byte{1, 2, 3, 4, 5}, "weird 5 byte frame", 1},
		{"empty", nil, "weird 0 byte frame", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lines := NewDecoder().Decode(tc.frame)
			if len(lines) != tc.lines {
				t.Fatalf("got %d lines %q, want %d", len(lines), lines, tc.lines)
			}
			if lines[0] != tc.first {
				t.Errorf("line = %q, want %q", lines[0], tc.first)
			}
		})
	}
}

func TestDecodeHideDump(t *testing.T) {
	d := NewDecoder()
	d.HideDump = true
	lines := d.Decode(frame(econet.AppendData(nil, stnB, stnA, 0x80, 0x99, make([]byte, 600))))
	if len(lines) != 1 || !strings.HasSuffix(lines[0], "DATA: len 602") {
		t.Errorf("lines = %q", lines)
	}
}

func TestAckRunCollapsing(t *testing.T) {
	ack := frame(econet.AppendAck(nil, stnA, stnB))
	next := frame(econet.AppendScout(nil, stnB, stnA, 0x80, 0x99))

	for n := 0; n <= 5; n++ {
		t.Run(fmt.Sprintf("%d acks", n), func(t *testing.T) {
			d := NewDecoder()
			var out []string
			for i := 0; i < n; i++ {
				out = append(out, d.Decode(ack)...)
			}
			out = append(out, d.Decode(next)...)

			var summaries []string
			for _, l := range out {
				if strings.HasSuffix(l, "acks received") {
					summaries = append(summaries, l)
				}
			}
			if n > 1 {
				if len(summaries) != 1 || summaries[0] != fmt.Sprintf("%d acks received", n) {
					t.Fatalf("summaries = %q", summaries)
				}
			} else if len(summaries) != 0 {
				t.Fatalf("unexpected summary %q", summaries)
			}
			if !strings.HasSuffix(out[len(out)-1], "SCOUT: ctl 80 port 99") {
				t.Errorf("last line = %q, want the scout", out[len(out)-1])
			}
			wantLines := 1
			if n > 0 {
				wantLines++
			}
			if n > 1 {
				wantLines++
			}
			if len(out) != wantLines {
				t.Errorf("got %d lines %q, want %d", len(out), out, wantLines)
			}
		})
	}
}

func TestAckRunBrokenByDifferentPair(t *testing.T) {
	d := NewDecoder()
	ab := frame(econet.AppendAck(nil, stnA, stnB))
	ba := frame(econet.AppendAck(nil, stnB, stnA))

	d.Decode(ab)
	d.Decode(ab)
	d.Decode(ab)
	lines := d.Decode(ba)
	if len(lines) != 2 || lines[0] != "3 acks received" || !strings.HasSuffix(lines[1], "ack") {
		t.Fatalf("lines = %q", lines)
	}
	if run := d.Run(); run.Count != 1 || run.Header != [4]byte{254, 0, 2, 0} {
		t.Errorf("run = %+v", run)
	}
	if got := d.Flush(); len(got) != 0 {
		t.Errorf("flush of single ack = %q", got)
	}
}
