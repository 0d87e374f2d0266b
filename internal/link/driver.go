package link

// Econet link driver.
//
// Send turns a payload into a scout/data exchange: both frames are queued in
// the transmit window, the scout is committed, and the interrupt routine
// sends the data frame once the scout is acknowledged. Inbound frames are
// accepted entirely by the interrupt routine; Recv drains the receive window
// for a listening port.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/acornnet/econetd/internal/econet"
	"github.com/acornnet/econetd/internal/hw"
	"github.com/acornnet/econetd/internal/logging"
	"github.com/acornnet/econetd/internal/metrics"
)

const (
	DefaultTimeout = 100 * time.Millisecond

	// pollInterval re-checks hardware state when no event arrives.
	pollInterval = 10 * time.Millisecond
)

// Options configures a Driver.
type Options struct {
	Timeout time.Duration
	Logger  *logging.Logger
	Metrics *metrics.Sink
}

// Driver programs a NetworkHardware interface.
type Driver struct {
	hw      hw.NetworkHardware
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.Sink
	ports   *PortRegistry

	txMu sync.Mutex

	// Frame count at the last monitor read; guarded by the interrupt mask.
	monSeen uint32
}

// NewDriver creates a driver for h.
func NewDriver(h hw.NetworkHardware, opts Options) *Driver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Driver{
		hw:      h,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		ports:   NewPortRegistry(),
	}
}

// Ports returns the driver's port registry.
func (d *Driver) Ports() *PortRegistry {
	return d.ports
}

// Address returns this station's address.
func (d *Driver) Address() econet.Address {
	return econet.AddressFromWord(uint16(d.hw.Load(hw.RegStationAddr)))
}

// SetAddress programs this station's address.
func (d *Driver) SetAddress(a econet.Address) error {
	if a.IsBroadcast() || a.Station == 0xFF {
		return fmt.Errorf("%w: station %d", ErrInvalidArgument, a.Station)
	}
	d.hw.Store(hw.RegStationAddr, uint32(a.Word()))
	d.logger.Verbose("station address set to %s", a)
	return nil
}

// MaxPayload is the largest payload the transmit window can carry.
func (d *Driver) MaxPayload() int {
	return len(d.hw.TxWindow()) - hw.TxDataOffset - econet.HeaderSize - 2
}

// wait blocks until ev fires, the poll interval passes or ctx is done.
func (d *Driver) wait(ctx context.Context, ev <-chan struct{}) error {
	t := time.NewTimer(pollInterval)
	defer t.Stop()
	select {
	case <-ev:
	case <-t.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Send transmits payload to dest and returns the number of payload bytes
// delivered. Concurrent calls are serialized.
func (d *Driver) Send(ctx context.Context, dest econet.EconetAddress, payload []byte) (int, error) {
	if dest.Station == 0 {
		return 0, ErrNoDestination
	}
	if limit := d.MaxPayload(); len(payload) > limit {
		return 0, fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLarge, len(payload), limit)
	}

	d.txMu.Lock()
	defer d.txMu.Unlock()

	start := time.Now()
	n, status, err := d.transmit(ctx, dest, payload)
	rtt := float64(time.Since(start).Microseconds()) / 1000.0

	d.logger.LogTransmit(dest.String(), len(payload), status.String(), rtt, err)
	m := metrics.Metric{
		Operation: metrics.OperationSend,
		Station:   dest.Addr().String(),
		Port:      uint8(dest.Port),
		Bytes:     n,
		Success:   err == nil,
		RTTMs:     rtt,
		Outcome:   outcome(err),
	}
	if err != nil {
		m.Error = err.Error()
	}
	d.metrics.Record(m)
	return n, err
}

func (d *Driver) transmit(ctx context.Context, dest econet.EconetAddress, payload []byte) (int, hw.TxStatus, error) {
	// Wait for the line: no handshake in progress and not mid-receive.
	for {
		ev := d.hw.Events()
		queued := false
		hw.WithInterruptsDisabled(d.hw, func() {
			if hw.State(d.hw) != hw.StateIdle || d.hw.Load(hw.RegStatus)&hw.StatusReceiving != 0 {
				return
			}
			d.queue(dest, payload)
			queued = true
		})
		if queued {
			break
		}
		if err := d.wait(ctx, ev); err != nil {
			return 0, hw.TxPending, err
		}
	}

	for {
		ev := d.hw.Events()
		var (
			done         bool
			status       hw.TxStatus
			timeoutState hw.HandshakeState
		)
		hw.WithInterruptsDisabled(d.hw, func() {
			if hw.State(d.hw) != hw.StateIdle {
				return
			}
			done = true
			status = hw.TxStatus(d.hw.Load(hw.RegTxStatus))
			timeoutState = hw.HandshakeState(d.hw.Load(hw.RegTimeoutState))
		})
		if done {
			if err := statusError(status, timeoutState); err != nil {
				return 0, status, err
			}
			return len(payload), status, nil
		}
		if err := d.wait(ctx, ev); err != nil {
			d.abort()
			return 0, hw.TxNetError, err
		}
	}
}

// queue writes the scout and data frames and commits the scout. Interrupts
// must be disabled.
func (d *Driver) queue(dest econet.EconetAddress, payload []byte) {
	src := econet.AddressFromWord(uint16(d.hw.Load(hw.RegStationAddr)))
	dst := dest.Addr()
	tx := d.hw.TxWindow()

	scoutEnd := hw.TxScoutOffset + econet.PutScout(tx[hw.TxScoutOffset:], dst, src, econet.DefaultControl, dest.Port)
	dataEnd := hw.TxDataOffset + econet.PutData(tx[hw.TxDataOffset:], dst, src, econet.DefaultControl, dest.Port, payload)

	d.hw.Store(hw.RegTxDataEnd, uint32(dataEnd))
	d.hw.Store(hw.RegTxStatus, uint32(hw.TxPending))
	d.hw.Store(hw.RegTimeoutState, uint32(hw.StateIdle))
	d.hw.Store(hw.RegTimer, uint32(d.timeout.Milliseconds()))
	d.hw.Store(hw.RegHandshakeState, uint32(hw.StateTxScout))
	d.hw.Store(hw.RegTxStart, hw.TxScoutOffset)
	d.hw.Store(hw.RegTxEnd, uint32(scoutEnd))
}

// abort abandons an in-flight transmission after cancellation.
func (d *Driver) abort() {
	hw.WithInterruptsDisabled(d.hw, func() {
		switch hw.State(d.hw) {
		case hw.StateTxScout, hw.StateTxData:
			d.hw.Store(hw.RegTimer, 0)
			d.hw.Store(hw.RegTxStatus, uint32(hw.TxNetError))
			d.hw.Store(hw.RegHandshakeState, uint32(hw.StateIdle))
		}
	})
}

func statusError(status hw.TxStatus, timeoutState hw.HandshakeState) error {
	switch status {
	case hw.TxDone:
		return nil
	case hw.TxUnreachable:
		return ErrUnreachable
	case hw.TxTimeout:
		if timeoutState == hw.StateTxScout {
			return ErrUnreachable
		}
		return ErrTimeout
	default:
		return fmt.Errorf("%w: status %s", ErrNetError, status)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeDone
	case errors.Is(err, ErrUnreachable):
		return metrics.OutcomeUnreachable
	case errors.Is(err, ErrTimeout):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeNetError
	}
}

// Listen registers interest in frames for port.
func (d *Driver) Listen(port econet.Port) (*ListenHandle, error) {
	h := &ListenHandle{driver: d}
	if err := d.ports.Register(port, h); err != nil {
		return nil, err
	}
	hw.WithInterruptsDisabled(d.hw, func() {
		d.hw.SetPortSlot(port, h.id)
	})
	d.logger.Verbose("listening on port %02x (handle %d)", uint8(port), h.id)
	return h, nil
}

// Recv blocks until a frame is ready on h's port and copies up to len(buf)
// bytes of its payload. A frame larger than buf is returned over several
// calls; the port stays ready until the frame is fully drained.
func (d *Driver) Recv(ctx context.Context, h *ListenHandle, buf []byte) (int, error) {
	for {
		ev := d.hw.Events()
		var (
			n      int
			ready  bool
			closed bool
		)
		hw.WithInterruptsDisabled(d.hw, func() {
			if h.isClosed() {
				closed = true
				return
			}
			n, ready = d.drain(h, buf)
		})
		if closed {
			return 0, ErrClosed
		}
		if ready {
			return n, nil
		}
		if err := d.wait(ctx, ev); err != nil {
			return 0, err
		}
	}
}

// drain copies from the receive window. Interrupts must be disabled.
func (d *Driver) drain(h *ListenHandle, buf []byte) (int, bool) {
	if d.hw.PortSlot(h.port)&hw.SlotReady == 0 {
		return 0, false
	}
	start, avail := d.hw.Load(hw.RegRxStart), d.hw.Load(hw.RegRxLen)
	n := copy(buf, d.hw.RxWindow()[start:start+avail])
	if uint32(n) < avail {
		d.hw.Store(hw.RegRxStart, start+uint32(n))
		d.hw.Store(hw.RegRxLen, avail-uint32(n))
		return n, true
	}
	d.hw.Store(hw.RegRxStart, 0)
	d.hw.Store(hw.RegRxLen, 0)
	d.hw.SetPortSlot(h.port, h.id)
	return n, true
}

// Peek returns the number of bytes ready on h's port without consuming them.
func (d *Driver) Peek(h *ListenHandle) int {
	var n int
	hw.WithInterruptsDisabled(d.hw, func() {
		if h.isClosed() || d.hw.PortSlot(h.port)&hw.SlotReady == 0 {
			return
		}
		n = int(d.hw.Load(hw.RegRxLen))
	})
	return n
}

// Close unregisters h. An undrained frame for its port is discarded.
func (d *Driver) Close(h *ListenHandle) error {
	if !h.markClosed() {
		return ErrClosed
	}
	hw.WithInterruptsDisabled(d.hw, func() {
		if d.hw.PortSlot(h.port)&hw.SlotReady != 0 {
			d.hw.Store(hw.RegRxStart, 0)
			d.hw.Store(hw.RegRxLen, 0)
		}
		d.hw.SetPortSlot(h.port, 0)
	})
	d.ports.Unregister(h.port)
	d.logger.Verbose("closed port %02x", uint8(h.port))
	return nil
}

// SetMonitor switches monitor mode. In monitor mode the interface captures
// every frame on the wire and takes no part in handshakes.
func (d *Driver) SetMonitor(on bool) {
	var v uint32
	if on {
		v = 1
	}
	hw.WithInterruptsDisabled(d.hw, func() {
		d.monSeen = d.hw.Load(hw.RegFrameCount)
		d.hw.Store(hw.RegMonitor, v)
	})
}

// Monitoring reports whether monitor mode is on.
func (d *Driver) Monitoring() bool {
	return d.hw.Load(hw.RegMonitor) != 0
}

// RecvFrame waits for the next frame captured in monitor mode and copies it,
// FCS included, into buf. Frames that arrive faster than they are read are
// skipped; the latest capture is returned.
func (d *Driver) RecvFrame(ctx context.Context, buf []byte) (int, error) {
	for {
		if !d.Monitoring() {
			return 0, fmt.Errorf("%w: monitor mode is off", ErrInvalidArgument)
		}
		ev := d.hw.Events()
		var (
			n     int
			ready bool
		)
		hw.WithInterruptsDisabled(d.hw, func() {
			count := d.hw.Load(hw.RegFrameCount)
			if count == d.monSeen {
				return
			}
			d.monSeen = count
			start, l := d.hw.Load(hw.RegRxStart), d.hw.Load(hw.RegRxLen)
			n = copy(buf, d.hw.RxWindow()[start:start+l])
			ready = true
		})
		if ready {
			return n, nil
		}
		if err := d.wait(ctx, ev); err != nil {
			return 0, err
		}
	}
}

// SetClockTerm programs the network clock and line termination.
func (d *Driver) SetClockTerm(ct hw.ClockTerm) error {
	if div := ct.Divider(); div < hw.MinClockDivider || div > hw.MaxClockDivider {
		return fmt.Errorf("%w: clock divider %d (want %d-%d)", ErrInvalidArgument, div, hw.MinClockDivider, hw.MaxClockDivider)
	}
	d.hw.Store(hw.RegClockTerm, uint32(ct))
	d.logger.Verbose("clock divider %d, clock %v, termination %v", ct.Divider(), ct.ClockEnabled(), ct.Terminated())
	return nil
}

// ClockTerm returns the clock and termination word.
func (d *Driver) ClockTerm() hw.ClockTerm {
	return hw.ClockTerm(d.hw.Load(hw.RegClockTerm))
}

// DebugState returns a consistent snapshot of the interface registers.
func (d *Driver) DebugState() hw.DebugState {
	var s hw.DebugState
	hw.WithInterruptsDisabled(d.hw, func() {
		s = hw.Snapshot(d.hw)
	})
	return s
}

// Ioctl applies a device-level control request. Requests that bind state to
// an open file (receive port, send address) are handled by File.Ioctl.
func (d *Driver) Ioctl(req hw.Request, arg any) error {
	switch req.ID() {
	case hw.ReqSetAddr:
		return d.SetAddress(econet.AddressFromWord(req.Param16()))
	case hw.ReqSetMonitor:
		d.SetMonitor(req.Param8()&1 != 0)
		return nil
	case hw.ReqSetClkTerm:
		return d.SetClockTerm(hw.ClockTerm(req.Param16()))
	case hw.ReqGetAddr:
		p, ok := arg.(*uint16)
		if !ok || p == nil {
			return fmt.Errorf("%w: %s needs *uint16", ErrInvalidArgument, req)
		}
		*p = d.Address().Word()
		return nil
	case hw.ReqGetClkTerm:
		p, ok := arg.(*uint16)
		if !ok || p == nil {
			return fmt.Errorf("%w: %s needs *uint16", ErrInvalidArgument, req)
		}
		*p = uint16(d.ClockTerm())
		return nil
	case hw.ReqDebugBuf:
		p, ok := arg.(*hw.DebugState)
		if !ok || p == nil {
			return fmt.Errorf("%w: %s needs *hw.DebugState", ErrInvalidArgument, req)
		}
		*p = d.DebugState()
		return nil
	default:
		d.logger.Error("ioctl: bad request %s", req)
		return fmt.Errorf("%w: request %s", ErrInvalidArgument, req)
	}
}

// ListenHandle is a registered interest in one port.
type ListenHandle struct {
	driver *Driver
	id     uint8
	port   econet.Port

	mu     sync.Mutex
	closed bool
}

// Port returns the port the handle listens on.
func (h *ListenHandle) Port() econet.Port {
	return h.port
}

// ID returns the slot id of the handle.
func (h *ListenHandle) ID() uint8 {
	return h.id
}

// Recv is shorthand for Driver.Recv.
func (h *ListenHandle) Recv(ctx context.Context, buf []byte) (int, error) {
	return h.driver.Recv(ctx, h, buf)
}

// Peek is shorthand for Driver.Peek.
func (h *ListenHandle) Peek() int {
	return h.driver.Peek(h)
}

// Close is shorthand for Driver.Close.
func (h *ListenHandle) Close() error {
	return h.driver.Close(h)
}

func (h *ListenHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *ListenHandle) markClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.closed = true
	return true
}
