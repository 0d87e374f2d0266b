package link

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/acornnet/econetd/internal/econet"
	"github.com/acornnet/econetd/internal/hw"
)

// fakeHW is a scripted NetworkHardware. onCommit plays the interrupt routine
// after each scout commit.
type fakeHW struct {
	regs  [hw.NumRegisters]atomic.Uint32
	slots [256]atomic.Uint32
	tx    []byte
	rx    []byte

	irq sync.Mutex

	evMu   sync.Mutex
	events chan struct{}

	traceMu sync.Mutex
	trace   []hw.HandshakeState
	commits []uint32

	onCommit func(f *fakeHW)
}

func newFakeHW(script func(*fakeHW)) *fakeHW {
	f := &fakeHW{
		tx:       make([]byte, 64),
		rx:       make([]byte, 64),
		events:   make(chan struct{}),
		onCommit: script,
	}
	f.regs[hw.RegStationAddr].Store(uint32(econet.Address{Net: 0, Station: 254}.Word()))
	return f
}

func (f *fakeHW) Load(r hw.Register) uint32 { return f.regs[r].Load() }

func (f *fakeHW) Store(r hw.Register, v uint32) {
	f.set(r, v)
	if r == hw.RegTxEnd && f.onCommit != nil {
		go f.interrupt(f.onCommit)
	}
}

// set writes a register without triggering a commit, recording the trace.
func (f *fakeHW) set(r hw.Register, v uint32) {
	f.regs[r].Store(v)
	f.traceMu.Lock()
	defer f.traceMu.Unlock()
	switch r {
	case hw.RegHandshakeState:
		f.trace = append(f.trace, hw.HandshakeState(v))
	case hw.RegTxEnd:
		f.commits = append(f.commits, v)
	}
}

func (f *fakeHW) PortSlot(port econet.Port) uint8 { return uint8(f.slots[port].Load()) }
func (f *fakeHW) SetPortSlot(port econet.Port, v uint8) {
	f.slots[port].Store(uint32(v))
}
func (f *fakeHW) TxWindow() []byte   { return f.tx }
func (f *fakeHW) RxWindow() []byte   { return f.rx }
func (f *fakeHW) DisableInterrupts() { f.irq.Lock() }
func (f *fakeHW) EnableInterrupts()  { f.irq.Unlock() }

func (f *fakeHW) Events() <-chan struct{} {
	f.evMu.Lock()
	defer f.evMu.Unlock()
	return f.events
}

func (f *fakeHW) interrupt(fn func(*fakeHW)) {
	f.irq.Lock()
	fn(f)
	f.irq.Unlock()
	f.evMu.Lock()
	close(f.events)
	f.events = make(chan struct{})
	f.evMu.Unlock()
}

// later runs fn as an interrupt after d.
func (f *fakeHW) later(d time.Duration, fn func(*fakeHW)) {
	time.AfterFunc(d, func() { f.interrupt(fn) })
}

// deliver places a received frame for port in the receive window.
func (f *fakeHW) deliver(port econet.Port, payload []byte) {
	f.interrupt(func(f *fakeHW) {
		n := copy(f.rx, payload)
		f.set(hw.RegRxStart, 0)
		f.set(hw.RegRxLen, uint32(n))
		f.set(hw.RegPendingPort, uint32(port))
		f.slots[port].Store(f.slots[port].Load() | uint32(hw.SlotReady))
	})
}

func (f *fakeHW) snapshot() ([]hw.HandshakeState, []uint32) {
	f.traceMu.Lock()
	defer f.traceMu.Unlock()
	return append([]hw.HandshakeState(nil), f.trace...), append([]uint32(nil), f.commits...)
}

// Scripts.

func ackScoutAndData(f *fakeHW) {
	f.later(2*time.Millisecond, func(f *fakeHW) {
		f.set(hw.RegHandshakeState, uint32(hw.StateTxData))
		f.set(hw.RegTxStart, hw.TxDataOffset)
		f.set(hw.RegTxEnd, f.Load(hw.RegTxDataEnd))
		f.later(2*time.Millisecond, func(f *fakeHW) {
			f.set(hw.RegTxStatus, uint32(hw.TxDone))
			f.set(hw.RegHandshakeState, uint32(hw.StateIdle))
		})
	})
}

func timeoutIn(state hw.HandshakeState) func(*fakeHW) {
	return func(f *fakeHW) {
		if state == hw.StateTxData {
			f.set(hw.RegHandshakeState, uint32(hw.StateTxData))
		}
		f.later(time.Duration(f.Load(hw.RegTimer))*time.Millisecond, func(f *fakeHW) {
			f.set(hw.RegTimeoutState, f.Load(hw.RegHandshakeState))
			f.set(hw.RegTxStatus, uint32(hw.TxTimeout))
			f.set(hw.RegHandshakeState, uint32(hw.StateIdle))
		})
	}
}

func failWith(status hw.TxStatus) func(*fakeHW) {
	return func(f *fakeHW) {
		f.set(hw.RegTxStatus, uint32(status))
		f.set(hw.RegHandshakeState, uint32(hw.StateIdle))
	}
}
