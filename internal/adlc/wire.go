package adlc

import (
	"errors"
	"sync"
)

// ErrWireClosed is returned by Transmit after Close.
var ErrWireClosed = errors.New("wire closed")

// Wire carries complete frames (FCS included) between interfaces.
type Wire interface {
	// Transmit puts a frame on the wire. It must not block on the receiver.
	Transmit(frame []byte) error
	// Frames delivers frames heard on the wire. The channel is closed when
	// the wire is closed.
	Frames() <-chan []byte
	Close() error
}

const busQueueDepth = 64

// Bus is an in-memory shared medium. Every frame transmitted by one attached
// wire is heard by all others, like the physical Econet line.
type Bus struct {
	mu    sync.Mutex
	wires []*busWire
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Attach connects a new wire to the bus.
func (b *Bus) Attach() Wire {
	w := &busWire{bus: b, frames: make(chan []byte, busQueueDepth)}
	b.mu.Lock()
	b.wires = append(b.wires, w)
	b.mu.Unlock()
	return w
}

func (b *Bus) deliver(from *busWire, frame []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range b.wires {
		if w == from {
			continue
		}
		f := make([]byte, len(frame))
		copy(f, frame)
		select {
		case w.frames <- f:
		default:
			// Receiver is not keeping up; the frame is lost on the line.
		}
	}
}

func (b *Bus) detach(w *busWire) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, x := range b.wires {
		if x == w {
			b.wires = append(b.wires[:i], b.wires[i+1:]...)
			close(w.frames)
			return
		}
	}
}

type busWire struct {
	bus    *Bus
	frames chan []byte
	once   sync.Once
	closed bool
	mu     sync.Mutex
}

func (w *busWire) Transmit(frame []byte) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrWireClosed
	}
	w.bus.deliver(w, frame)
	return nil
}

func (w *busWire) Frames() <-chan []byte {
	return w.frames
}

func (w *busWire) Close() error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		w.bus.detach(w)
	})
	return nil
}
