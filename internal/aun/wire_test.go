package aun

import (
	"bytes"
	"testing"
	"time"

	"github.com/acornnet/econetd/internal/econet"
)

func TestWireUnicastAndBroadcast(t *testing.T) {
	a, err := Open(Options{Listen: "127.0.0.1:0", Self: econet.Address{Station: 2}})
	if err != nil {
		t.Fatalf("Open a: %v", err)
	}
	defer a.Close()

	aAddr := a.LocalAddr()
	self := econet.Address{Station: 254}
	b, err := Open(Options{
		Listen: "127.0.0.1:0",
		Self:   self,
		Stations: []Station{
			{Addr: econet.Address{Station: 2}, Host: "127.0.0.1", Port: aAddr.Port},
			{Addr: self, Host: "127.0.0.1", Port: 1},
		},
	})
	if err != nil {
		t.Fatalf("Open b: %v", err)
	}
	defer b.Close()

	frames := [][]byte{
		econet.AppendFCS(econet.AppendScout(nil, econet.Address{Station: 2}, self, 0x80, econet.PortNetFS)),
		econet.AppendFCS(econet.AppendData(nil, econet.Address{}, self, 0x80, 0x54, []byte("bcast"))),
	}
	for _, f := range frames {
		if err := b.Transmit(f); err != nil {
			t.Fatalf("Transmit: %v", err)
		}
		select {
		case got := <-a.Frames():
			if !bytes.Equal(got, f) {
				t.Errorf("received % x, want % x", got, f)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("frame not received")
		}
	}

	if err := b.Transmit(econet.AppendFCS(econet.AppendAck(nil, econet.Address{Station: 77}, self))); err != nil {
		t.Errorf("Transmit to unknown station = %v, want lost frame", err)
	}
	if err := b.Transmit([]byte{1, 2}); err == nil {
		t.Error("expected error for frame without header")
	}
}

func TestWireClose(t *testing.T) {
	w, err := Open(Options{Listen: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	select {
	case _, ok := <-w.Frames():
		if ok {
			t.Error("frames channel still open")
		}
	case <-time.After(2 * time.Second):
		t.Error("frames channel not closed")
	}
	w.Close()
}
