package monitor

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/acornnet/econetd/internal/econet"
)

func writeCapture(t *testing.T, frames [][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "econet.pcap")
	w, err := CreatePcap(path)
	if err != nil {
		t.Fatalf("CreatePcap: %v", err)
	}
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, f := range frames {
		if err := w.WriteFrame(base.Add(time.Duration(i)*time.Millisecond), f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if w.Count() != len(frames) {
		t.Errorf("Count = %d", w.Count())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestPcapRoundTrip(t *testing.T) {
	frames := [][]byte{
		frame(econet.AppendScout(nil, stnB, stnA, 0x80, 0x99)),
		frame(econet.AppendAck(nil, stnA, stnB)),
	}
	path := writeCapture(t, frames)

	r, err := OpenPcap(path)
	if err != nil {
		t.Fatalf("OpenPcap: %v", err)
	}
	defer r.Close()
	for i, want := range frames {
		got, ts, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d = % x, want % x", i, got, want)
		}
		if ts.Nanosecond() != i*int(time.Millisecond) {
			t.Errorf("frame %d timestamp = %v", i, ts)
		}
	}
	if _, _, err := r.ReadFrame(); err != io.EOF {
		t.Errorf("ReadFrame at end = %v, want EOF", err)
	}
}

func TestOpenPcapRejectsOtherLinkTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eth.pcap")
	// Minimal pcap header with link type 1 (Ethernet).
	hdr := []byte{
		0xd4, 0xc3, 0xb2, 0xa1, 2, 0, 4, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		0xff, 0xff, 0, 0, 1, 0, 0, 0,
	}
	if err := os.WriteFile(path, hdr, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenPcap(path); err == nil || !strings.Contains(err.Error(), "link type") {
		t.Errorf("OpenPcap = %v", err)
	}
}

func TestWatcherReplay(t *testing.T) {
	ack := frame(econet.AppendAck(nil, stnA, stnB))
	path := writeCapture(t, [][]byte{
		frame(econet.AppendScout(nil, stnB, stnA, 0x80, 0x99)),
		ack, ack, ack,
	})
	r, err := OpenPcap(path)
	if err != nil {
		t.Fatalf("OpenPcap: %v", err)
	}
	defer r.Close()

	recPath := filepath.Join(t.TempDir(), "copy.pcap")
	rec, err := CreatePcap(recPath)
	if err != nil {
		t.Fatalf("CreatePcap: %v", err)
	}

	w := &Watcher{Source: r, Record: rec}
	var lines []string
	var frames int
	err = w.Run(context.Background(), func(c Capture) error {
		if c.Frame != nil {
			frames++
		}
		lines = append(lines, c.Lines...)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec.Close()

	if frames != 4 {
		t.Errorf("saw %d frames, want 4", frames)
	}
	want := []string{
		"000.002 > 000.254\tSCOUT: ctl 80 port 99",
		"000.254 > 000.002\tack",
		"3 acks received",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("lines = %q, want %q", lines, want)
	}
	if rec.Count() != 4 {
		t.Errorf("recorded %d frames, want 4", rec.Count())
	}
}

func TestWatcherCancelled(t *testing.T) {
	path := writeCapture(t, [][]byte{frame(econet.AppendAck(nil, stnA, stnB))})
	r, err := OpenPcap(path)
	if err != nil {
		t.Fatalf("OpenPcap: %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &Watcher{Source: r}
	if err := w.Run(ctx, func(Capture) error { return nil }); err != context.Canceled {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}
