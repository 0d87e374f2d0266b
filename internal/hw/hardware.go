package hw

// Register-level contract between the link driver and the network interface.
//
// The interface exposes a transmit window, a receive window, a bank of
// 32-bit registers and a per-port slot table. An interrupt routine owned by
// the interface mutates the same registers asynchronously; mainline code that
// reads a register and transitions on it must do so inside
// WithInterruptsDisabled.

import "github.com/acornnet/econetd/internal/econet"

// Register identifies a 32-bit interface register.
type Register int

const (
	RegStatus         Register = iota // status flags (StatusReceiving)
	RegStationAddr                    // net<<8 | station
	RegHandshakeState                 // HandshakeState
	RegTxStatus                       // TxStatus of the last transmission
	RegTimeoutState                   // handshake state when the timer expired
	RegPendingPort                    // port of the frame in the receive window
	RegRxStart                        // receive window read offset
	RegRxLen                          // bytes remaining in the receive window
	RegTxStart                        // transmit window start offset
	RegTxEnd                          // transmit window end offset; writing commits
	RegTxDataEnd                      // end offset of the queued data frame
	RegTimer                          // one-shot countdown in ms; writing arms it, 0 disarms
	RegFrameCount                     // frames seen on the wire
	RegMonitor                        // non-zero captures every frame
	RegClockTerm                      // clock divider and termination (ClockTerm)

	NumRegisters
)

// Status register bits.
const (
	StatusReceiving uint32 = 1 << 0
)

// Port slot encoding: the low seven bits hold the listening handle, the top
// bit is set by the interrupt routine when a frame is ready for it.
const (
	SlotReady      uint8 = 0x80
	SlotHandleMask uint8 = 0x7F
)

// Transmit window layout: the scout frame sits at a fixed low offset and the
// data frame immediately after it.
const (
	TxScoutOffset = 0
	TxDataOffset  = econet.HeaderSize + 2
)

// HandshakeState is the link handshake state shared with the interrupt routine.
type HandshakeState uint32

const (
	StateIdle     HandshakeState = 0 // waiting for a scout
	StateWaitData HandshakeState = 1 // scout acked, waiting for its data frame
	StateTxScout  HandshakeState = 2 // scout sent, waiting for its ack
	StateTxData   HandshakeState = 3 // data sent, waiting for its ack
)

// String returns a human-readable name for the state.
func (s HandshakeState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateWaitData:
		return "WaitData"
	case StateTxScout:
		return "TxScout"
	case StateTxData:
		return "TxData"
	default:
		return "Unknown"
	}
}

// TxStatus is the outcome of a transmission reported by the interrupt routine.
type TxStatus uint32

const (
	TxPending     TxStatus = 0
	TxDone        TxStatus = 1
	TxNetError    TxStatus = 2
	TxTimeout     TxStatus = 3
	TxUnreachable TxStatus = 4
)

// String returns a human-readable name for the status.
func (s TxStatus) String() string {
	switch s {
	case TxPending:
		return "Pending"
	case TxDone:
		return "Done"
	case TxNetError:
		return "NetError"
	case TxTimeout:
		return "Timeout"
	case TxUnreachable:
		return "Unreachable"
	default:
		return "Unknown"
	}
}

// NetworkHardware is the interface the link driver programs.
//
// Load and Store are atomic with respect to the interrupt routine. Events
// returns a channel that is closed the next time the interrupt routine
// changes any state; callers fetch it before testing their condition so a
// change between the test and the wait is not missed.
type NetworkHardware interface {
	Load(r Register) uint32
	Store(r Register, v uint32)
	PortSlot(port econet.Port) uint8
	SetPortSlot(port econet.Port, v uint8)
	TxWindow() []byte
	RxWindow() []byte
	DisableInterrupts()
	EnableInterrupts()
	Events() <-chan struct{}
}

// WithInterruptsDisabled runs fn with the interrupt routine masked. Interrupts
// are re-enabled on every exit path, including a panic in fn.
func WithInterruptsDisabled(h NetworkHardware, fn func()) {
	h.DisableInterrupts()
	defer h.EnableInterrupts()
	fn()
}

// State reads the handshake state register.
func State(h NetworkHardware) HandshakeState {
	return HandshakeState(h.Load(RegHandshakeState))
}
