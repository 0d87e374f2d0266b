package adlc

// Software Econet interface.
//
// Interface implements hw.NetworkHardware over a Wire. The frame handler,
// the commit handler and the timer all run as the "interrupt routine": each
// takes the irq lock for the whole handler, so DisableInterrupts masks them
// exactly as it would on the chip.

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/acornnet/econetd/internal/econet"
	"github.com/acornnet/econetd/internal/hw"
	"github.com/acornnet/econetd/internal/logging"
)

const (
	DefaultBufferSize = 512
	// DefaultWaitDataTimeout bounds how long a receiver waits for the data
	// frame after acking a scout.
	DefaultWaitDataTimeout = 100 * time.Millisecond
)

// Options configures an Interface.
type Options struct {
	TxBufferSize    int
	RxBufferSize    int
	WaitDataTimeout time.Duration
	Logger          *logging.Logger
}

// Interface is a software Econet interface attached to a Wire.
type Interface struct {
	regs  [hw.NumRegisters]atomic.Uint32
	slots [256]atomic.Uint32
	tx    []byte
	rx    []byte

	irq sync.Mutex

	evMu   sync.Mutex
	events chan struct{}

	tmu      sync.Mutex
	timer    *time.Timer
	timerGen uint64

	kick chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	// Handshake peer, owned by the interrupt routine.
	peer econet.Address

	wire     Wire
	waitData time.Duration
	log      *logging.Logger
}

// New creates an interface on w. Call Start to begin servicing the wire.
func New(w Wire, opts Options) *Interface {
	if opts.TxBufferSize <= 0 {
		opts.TxBufferSize = DefaultBufferSize
	}
	if opts.RxBufferSize <= 0 {
		opts.RxBufferSize = DefaultBufferSize
	}
	if opts.WaitDataTimeout <= 0 {
		opts.WaitDataTimeout = DefaultWaitDataTimeout
	}
	return &Interface{
		tx:       make([]byte, opts.TxBufferSize),
		rx:       make([]byte, opts.RxBufferSize),
		events:   make(chan struct{}),
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		wire:     w,
		waitData: opts.WaitDataTimeout,
		log:      opts.Logger,
	}
}

// Start launches the interrupt routine.
func (i *Interface) Start() {
	i.wg.Add(1)
	go i.run()
}

// Close stops the interrupt routine and closes the wire. A transmission in
// flight fails with TxNetError and a pending reception is abandoned.
func (i *Interface) Close() error {
	var err error
	i.once.Do(func() {
		close(i.done)
		i.stopTimer()
		err = i.wire.Close()
		i.wg.Wait()
		i.interrupt(func() { i.abandon(ErrWireClosed) })
	})
	return err
}

// abandon returns the handshake to Idle once the interface is closed.
func (i *Interface) abandon(err error) {
	switch i.state() {
	case hw.StateTxScout, hw.StateTxData:
		i.failTx(hw.TxNetError, err)
	case hw.StateWaitData:
		i.setReceiving(false)
		i.setState(hw.StateIdle)
	}
}

// Load reads a register.
func (i *Interface) Load(r hw.Register) uint32 {
	return i.regs[r].Load()
}

// Store writes a register. Writing RegTxEnd commits the transmit window and
// writing RegTimer arms (or, with 0, disarms) the one-shot timer.
func (i *Interface) Store(r hw.Register, v uint32) {
	i.regs[r].Store(v)
	switch r {
	case hw.RegTxEnd:
		select {
		case <-i.done:
			// Nothing will service the commit.
			i.abandon(ErrWireClosed)
			return
		default:
		}
		select {
		case i.kick <- struct{}{}:
		default:
		}
	case hw.RegTimer:
		if v == 0 {
			i.stopTimer()
		} else {
			i.armTimer(time.Duration(v) * time.Millisecond)
		}
	}
}

func (i *Interface) PortSlot(port econet.Port) uint8 {
	return uint8(i.slots[port].Load())
}

func (i *Interface) SetPortSlot(port econet.Port, v uint8) {
	i.slots[port].Store(uint32(v))
}

func (i *Interface) TxWindow() []byte { return i.tx }
func (i *Interface) RxWindow() []byte { return i.rx }

func (i *Interface) DisableInterrupts() { i.irq.Lock() }
func (i *Interface) EnableInterrupts()  { i.irq.Unlock() }

// Events returns a channel closed on the next state change.
func (i *Interface) Events() <-chan struct{} {
	i.evMu.Lock()
	defer i.evMu.Unlock()
	return i.events
}

func (i *Interface) signal() {
	i.evMu.Lock()
	close(i.events)
	i.events = make(chan struct{})
	i.evMu.Unlock()
}

func (i *Interface) armTimer(d time.Duration) {
	i.tmu.Lock()
	defer i.tmu.Unlock()
	if i.timer != nil {
		i.timer.Stop()
	}
	i.timerGen++
	gen := i.timerGen
	i.timer = time.AfterFunc(d, func() { i.expire(gen) })
}

func (i *Interface) stopTimer() {
	i.tmu.Lock()
	defer i.tmu.Unlock()
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
	i.timerGen++
}

func (i *Interface) timerCurrent(gen uint64) bool {
	i.tmu.Lock()
	defer i.tmu.Unlock()
	return gen == i.timerGen
}

func (i *Interface) run() {
	defer i.wg.Done()
	frames := i.wire.Frames()
	for {
		select {
		case <-i.done:
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			i.interrupt(func() { i.handleFrame(frame) })
		case <-i.kick:
			i.interrupt(i.handleCommit)
		}
	}
}

// interrupt runs one handler with interrupts masked and wakes waiters.
func (i *Interface) interrupt(fn func()) {
	i.irq.Lock()
	fn()
	i.irq.Unlock()
	i.signal()
}

func (i *Interface) expire(gen uint64) {
	select {
	case <-i.done:
		return
	default:
	}
	i.interrupt(func() {
		if !i.timerCurrent(gen) {
			return
		}
		i.handleTimeout()
	})
}

func (i *Interface) state() hw.HandshakeState {
	return hw.HandshakeState(i.regs[hw.RegHandshakeState].Load())
}

func (i *Interface) setState(s hw.HandshakeState) {
	i.regs[hw.RegHandshakeState].Store(uint32(s))
}

func (i *Interface) self() econet.Address {
	return econet.AddressFromWord(uint16(i.regs[hw.RegStationAddr].Load()))
}

func (i *Interface) setReceiving(on bool) {
	st := i.regs[hw.RegStatus].Load()
	if on {
		st |= hw.StatusReceiving
	} else {
		st &^= hw.StatusReceiving
	}
	i.regs[hw.RegStatus].Store(st)
}

func (i *Interface) transmit(frame []byte) error {
	out := econet.AppendFCS(append([]byte(nil), frame...))
	i.log.LogHex("adlc tx", out)
	return i.wire.Transmit(out)
}

// handleCommit starts the scout of a transmission queued in the window.
func (i *Interface) handleCommit() {
	if i.state() != hw.StateTxScout || hw.TxStatus(i.Load(hw.RegTxStatus)) != hw.TxPending {
		return
	}
	start, end := i.Load(hw.RegTxStart), i.Load(hw.RegTxEnd)
	if end <= start || int(end) > len(i.tx) {
		i.failTx(hw.TxNetError, fmt.Errorf("bad transmit window %d..%d", start, end))
		return
	}
	scout := econet.RawFrame(i.tx[start:end])
	hdr, err := scout.Header()
	if err != nil {
		i.failTx(hw.TxNetError, err)
		return
	}
	i.peer = hdr.Dst
	if err := i.transmit(scout); err != nil {
		i.failTx(hw.TxNetError, err)
	}
}

func (i *Interface) failTx(status hw.TxStatus, err error) {
	i.log.Debug("adlc: transmit failed (%s): %v", status, err)
	i.stopTimer()
	i.Store(hw.RegTxStatus, uint32(status))
	i.setState(hw.StateIdle)
}

func (i *Interface) handleTimeout() {
	st := i.state()
	i.Store(hw.RegTimeoutState, uint32(st))
	switch st {
	case hw.StateTxScout, hw.StateTxData:
		i.log.Debug("adlc: timeout in %s waiting for %s", st, i.peer)
		i.Store(hw.RegTxStatus, uint32(hw.TxTimeout))
	case hw.StateWaitData:
		i.log.Debug("adlc: data frame from %s never arrived", i.peer)
		i.setReceiving(false)
	}
	i.setState(hw.StateIdle)
}

func (i *Interface) handleFrame(frame []byte) {
	if !econet.CheckFCS(frame) {
		i.log.Debug("adlc: dropped %d byte frame with bad FCS", len(frame))
		return
	}
	i.regs[hw.RegFrameCount].Add(1)
	if i.Load(hw.RegMonitor) != 0 {
		n := copy(i.rx, frame)
		i.Store(hw.RegRxStart, 0)
		i.Store(hw.RegRxLen, uint32(n))
		return
	}

	raw := econet.RawFrame(frame)
	hdr, err := raw.Header()
	if err != nil {
		return
	}
	// A data frame is only recognisable by the handshake it completes: with
	// 0 or 2 payload bytes it has the length of a scout or immediate scout.
	if i.state() == hw.StateWaitData && hdr.Src == i.peer && hdr.Dst == i.self() {
		if body := raw.Body(); len(body) >= 2 {
			i.onData(hdr, econet.DataBody{Control: body[0], Port: econet.Port(body[1]), Payload: body[2:]})
		}
		return
	}
	kind, err := raw.Kind()
	if err != nil {
		return
	}
	if hdr.Dst != i.self() && kind != econet.KindBroadcast {
		return
	}

	switch kind {
	case econet.KindAck:
		i.onAck(hdr)
	case econet.KindScout:
		s, _ := raw.Scout()
		i.onScout(hdr, s)
	case econet.KindBroadcast:
		d, err := raw.Data()
		if err == nil {
			i.onBroadcast(d)
		}
	case econet.KindImmediateScout:
		s, _ := raw.ImmediateScout()
		i.log.Debug("adlc: ignoring immediate %s from %s", s.Op, hdr.Src)
	}
}

func (i *Interface) onAck(hdr econet.Header) {
	if hdr.Src != i.peer {
		return
	}
	switch i.state() {
	case hw.StateTxScout:
		start, end := uint32(hw.TxDataOffset), i.Load(hw.RegTxDataEnd)
		if int(end) > len(i.tx) || end < start {
			i.failTx(hw.TxNetError, fmt.Errorf("bad data window %d..%d", start, end))
			return
		}
		i.setState(hw.StateTxData)
		i.Store(hw.RegTxStart, start)
		i.regs[hw.RegTxEnd].Store(end)
		if err := i.transmit(i.tx[start:end]); err != nil {
			i.failTx(hw.TxNetError, err)
			return
		}
		// Re-arm for the data phase with the same timeout the driver chose.
		i.armTimer(time.Duration(i.Load(hw.RegTimer)) * time.Millisecond)
	case hw.StateTxData:
		i.stopTimer()
		i.Store(hw.RegTxStatus, uint32(hw.TxDone))
		i.setState(hw.StateIdle)
	}
}

// rxBusy reports whether the receive window cannot take a frame for port.
func (i *Interface) rxBusy(port econet.Port) bool {
	slot := i.PortSlot(port)
	return slot&hw.SlotHandleMask == 0 || slot&hw.SlotReady != 0 || i.Load(hw.RegRxLen) != 0
}

func (i *Interface) onScout(hdr econet.Header, s econet.Scout) {
	if i.state() != hw.StateIdle {
		return
	}
	if i.rxBusy(s.Port) {
		// Not acked: the sender sees its scout go unanswered.
		i.log.Debug("adlc: refused scout from %s for port %02x", hdr.Src, uint8(s.Port))
		return
	}
	if err := i.transmit(econet.AppendAck(nil, hdr.Src, i.self())); err != nil {
		return
	}
	i.peer = hdr.Src
	i.Store(hw.RegPendingPort, uint32(s.Port))
	i.setReceiving(true)
	i.setState(hw.StateWaitData)
	i.armTimer(i.waitData)
}

func (i *Interface) onData(hdr econet.Header, d econet.DataBody) {
	if i.state() != hw.StateWaitData || hdr.Src != i.peer || uint32(d.Port) != i.Load(hw.RegPendingPort) {
		return
	}
	i.stopTimer()
	i.setReceiving(false)
	i.setState(hw.StateIdle)
	if len(d.Payload) > len(i.rx) {
		i.log.Debug("adlc: %d byte payload overflows receive buffer", len(d.Payload))
		return
	}
	if err := i.transmit(econet.AppendAck(nil, hdr.Src, i.self())); err != nil {
		return
	}
	i.deliver(d)
}

func (i *Interface) onBroadcast(d econet.DataBody) {
	if i.state() != hw.StateIdle || i.rxBusy(d.Port) || len(d.Payload) > len(i.rx) {
		return
	}
	i.Store(hw.RegPendingPort, uint32(d.Port))
	i.deliver(d)
}

func (i *Interface) deliver(d econet.DataBody) {
	n := copy(i.rx, d.Payload)
	i.Store(hw.RegRxStart, 0)
	i.Store(hw.RegRxLen, uint32(n))
	i.SetPortSlot(d.Port, i.PortSlot(d.Port)|hw.SlotReady)
}
