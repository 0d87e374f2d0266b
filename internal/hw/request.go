package hw

// Control requests.
//
// A request packs its id into the top byte and a small parameter into the
// low bytes. Requests that need more than that take an out-of-band argument.

import "fmt"

// Request is a control request code.
type Request uint32

const (
	ReqSetAddr     Request = 0x01000000 // low 16 bits: net<<8 | station
	ReqSetRecvPort Request = 0x02000000 // low byte: port
	ReqSetSendAddr Request = 0x03000000 // arg: *econet.EconetAddress
	ReqSetMonitor  Request = 0x04000000 // low bit: enable
	ReqSetClkTerm  Request = 0x05000000 // low 16 bits: ClockTerm
	ReqGetAddr     Request = 0x06000000 // arg: *uint16
	ReqGetClkTerm  Request = 0x07000000 // arg: *uint16
	ReqDebugBuf    Request = 0xF0000000 // arg: *DebugState

	requestIDMask Request = 0xFF000000
)

// ID returns the request id with the parameter bits cleared.
func (r Request) ID() Request {
	return r & requestIDMask
}

// Param8 returns the low parameter byte.
func (r Request) Param8() uint8 {
	return uint8(r)
}

// Param16 returns the low 16 parameter bits.
func (r Request) Param16() uint16 {
	return uint16(r)
}

// With returns the request id combined with a parameter.
func (r Request) With(param uint32) Request {
	return r.ID() | Request(param)&^requestIDMask
}

// String returns a human-readable name for the request id.
func (r Request) String() string {
	switch r.ID() {
	case ReqSetAddr:
		return "SET_ADDR"
	case ReqSetRecvPort:
		return "SET_RECV_PORT"
	case ReqSetSendAddr:
		return "SET_SEND_ADDR"
	case ReqSetMonitor:
		return "SET_MONITOR"
	case ReqSetClkTerm:
		return "SET_CLKTERM"
	case ReqGetAddr:
		return "GET_ADDR"
	case ReqGetClkTerm:
		return "GET_CLKTERM"
	case ReqDebugBuf:
		return "DBG_BUF"
	default:
		return fmt.Sprintf("0x%08X", uint32(r))
	}
}

// ClockTerm is the clock/termination control word: divider in the high byte,
// enable flags in the low byte.
type ClockTerm uint16

const (
	ClockEnable ClockTerm = 0x01
	TermEnable  ClockTerm = 0x02

	MinClockDivider = 1
	MaxClockDivider = 7
)

// NewClockTerm builds a control word. The divider is not range-checked.
func NewClockTerm(divider uint8, clock, term bool) ClockTerm {
	ct := ClockTerm(divider) << 8
	if clock {
		ct |= ClockEnable
	}
	if term {
		ct |= TermEnable
	}
	return ct
}

// Divider returns the clock divider.
func (c ClockTerm) Divider() uint8 {
	return uint8(c >> 8)
}

// ClockEnabled reports whether the network clock is driven by this node.
func (c ClockTerm) ClockEnabled() bool {
	return c&ClockEnable != 0
}

// Terminated reports whether the line terminator is switched in.
func (c ClockTerm) Terminated() bool {
	return c&TermEnable != 0
}

// DebugState is a snapshot of the interface state for diagnostics.
type DebugState struct {
	HandshakeState HandshakeState
	PendingPort    uint32
	RxStart        uint32
	RxLen          uint32
	TxStart        uint32
	TxEnd          uint32
	TxStatus       TxStatus
	TimeoutState   HandshakeState
}

// Snapshot reads a DebugState. Call it with interrupts disabled for a
// consistent view.
func Snapshot(h NetworkHardware) DebugState {
	return DebugState{
		HandshakeState: HandshakeState(h.Load(RegHandshakeState)),
		PendingPort:    h.Load(RegPendingPort),
		RxStart:        h.Load(RegRxStart),
		RxLen:          h.Load(RegRxLen),
		TxStart:        h.Load(RegTxStart),
		TxEnd:          h.Load(RegTxEnd),
		TxStatus:       TxStatus(h.Load(RegTxStatus)),
		TimeoutState:   HandshakeState(h.Load(RegTimeoutState)),
	}
}
