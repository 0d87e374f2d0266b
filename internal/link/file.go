package link

import (
	"context"
	"fmt"
	"sync"

	"github.com/acornnet/econetd/internal/econet"
	"github.com/acornnet/econetd/internal/hw"
)

// File is a descriptor-like view of the driver: Ioctl binds a receive port
// and a send address, Read receives on the bound port (or reads captured
// frames in monitor mode) and Write sends to the bound address.
type File struct {
	d *Driver

	mu       sync.Mutex
	handle   *ListenHandle
	sendAddr econet.EconetAddress
	monitor  bool
	closed   bool
}

// Open returns a new File on the driver.
func (d *Driver) Open() *File {
	return &File{d: d}
}

// Ioctl applies a control request. SetRecvPort, SetSendAddr and SetMonitor
// bind state to this file; everything else goes to the driver.
func (f *File) Ioctl(req hw.Request, arg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	switch req.ID() {
	case hw.ReqSetRecvPort:
		h, err := f.d.Listen(econet.Port(req.Param8()))
		if err != nil {
			return err
		}
		if f.handle != nil {
			f.handle.Close()
		}
		f.handle = h
		return nil
	case hw.ReqSetSendAddr:
		addr, ok := arg.(*econet.EconetAddress)
		if !ok || addr == nil {
			return fmt.Errorf("%w: %s needs *econet.EconetAddress", ErrInvalidArgument, req)
		}
		f.sendAddr = *addr
		return nil
	case hw.ReqSetMonitor:
		f.monitor = req.Param8()&1 != 0
		return f.d.Ioctl(req, arg)
	default:
		return f.d.Ioctl(req, arg)
	}
}

// Read implements io.Reader.
func (f *File) Read(p []byte) (int, error) {
	return f.ReadContext(context.Background(), p)
}

// ReadContext receives on the bound port, or returns the next captured frame
// in monitor mode.
func (f *File) ReadContext(ctx context.Context, p []byte) (int, error) {
	f.mu.Lock()
	h, monitor, closed := f.handle, f.monitor, f.closed
	f.mu.Unlock()

	switch {
	case closed:
		return 0, ErrClosed
	case monitor:
		return f.d.RecvFrame(ctx, p)
	case h == nil:
		return 0, ErrNotListening
	default:
		return h.Recv(ctx, p)
	}
}

// Write implements io.Writer.
func (f *File) Write(p []byte) (int, error) {
	return f.WriteContext(context.Background(), p)
}

// WriteContext sends p to the bound send address.
func (f *File) WriteContext(ctx context.Context, p []byte) (int, error) {
	f.mu.Lock()
	dest, closed := f.sendAddr, f.closed
	f.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	return f.d.Send(ctx, dest, p)
}

// Close releases the bound port.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.handle != nil {
		f.handle.Close()
		f.handle = nil
	}
	return nil
}
