package link

import (
	"errors"
	"testing"
	"time"

	"github.com/acornnet/econetd/internal/adlc"
	"github.com/acornnet/econetd/internal/econet"
	"github.com/acornnet/econetd/internal/hw"
)

func TestFileReadWrite(t *testing.T) {
	bus := adlc.NewBus()
	server := newStation(t, bus, econet.Address{Station: 254})
	client := newStation(t, bus, econet.Address{Station: 2})

	sf := server.Open()
	defer sf.Close()
	if _, err := sf.Read(make([]byte, 4)); !errors.Is(err, ErrNotListening) {
		t.Errorf("Read before SET_RECV_PORT = %v", err)
	}
	if err := sf.Ioctl(hw.ReqSetRecvPort.With(uint32(econet.PortNetFS)), nil); err != nil {
		t.Fatalf("SET_RECV_PORT: %v", err)
	}

	cf := client.Open()
	defer cf.Close()
	if err := cf.Ioctl(hw.ReqSetSendAddr, econet.EconetAddress{Port: econet.PortNetFS, Station: 254}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SET_SEND_ADDR by value = %v", err)
	}
	dest := econet.EconetAddress{Port: econet.PortNetFS, Station: 254}
	if err := cf.Ioctl(hw.ReqSetSendAddr, &dest); err != nil {
		t.Fatalf("SET_SEND_ADDR: %v", err)
	}

	if n, err := cf.Write([]byte("*I AM")); err != nil || n != 5 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	buf := make([]byte, 16)
	n, err := sf.ReadContext(testContext(t), buf)
	if err != nil || string(buf[:n]) != "*I AM" {
		t.Fatalf("Read = %q, %v", buf[:n], err)
	}

	// Rebinding releases the old port.
	if err := sf.Ioctl(hw.ReqSetRecvPort.With(0x54), nil); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if _, ok := server.Ports().Route(econet.PortNetFS); ok {
		t.Error("old port still bound after rebind")
	}

	sf.Close()
	if _, err := sf.Read(buf); !errors.Is(err, ErrClosed) {
		t.Errorf("Read after Close = %v", err)
	}
	if err := sf.Ioctl(hw.ReqSetMonitor.With(1), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Ioctl after Close = %v", err)
	}
	if len(server.Ports().Ports()) != 0 {
		t.Error("Close left ports bound")
	}
}

func TestFileMonitorRead(t *testing.T) {
	bus := adlc.NewBus()
	mon := newStation(t, bus, econet.Address{Station: 200})
	other := newStation(t, bus, econet.Address{Station: 2})

	f := mon.Open()
	defer f.Close()
	if err := f.Ioctl(hw.ReqSetMonitor.With(1), nil); err != nil {
		t.Fatalf("SET_MONITOR: %v", err)
	}
	if !mon.Monitoring() {
		t.Fatal("monitor mode not enabled")
	}

	ctx := testContext(t)
	sent := make(chan struct{})
	go func() {
		defer close(sent)
		time.Sleep(5 * time.Millisecond)
		other.Send(ctx, econet.EconetAddress{Port: 0x54, Station: 9}, []byte("x"))
	}()
	buf := make([]byte, 64)
	n, err := f.ReadContext(ctx, buf)
	<-sent
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if k, _ := econet.Classify(buf[:n]); k != econet.KindScout {
		t.Errorf("first captured frame is %s, want Scout", k)
	}
}
