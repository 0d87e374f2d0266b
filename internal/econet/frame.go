package econet

// Econet frame layout and classification.
//
// Every frame starts with a 4-byte address header:
//   DST_STN DST_NET SRC_STN SRC_NET
// followed by a type-dependent body and a 2-byte frame check sequence that
// the interface hardware validates before the frame is handed up.
//
// The frame type is not carried on the wire. It is inferred from the total
// length including the FCS:
//   6  bytes - ack (no body)
//   8  bytes - scout (control, port)
//   10 bytes - immediate scout (control, op, 2 reserved)
//   other    - data, or broadcast when DST_STN is 0 (control, port, payload)

import (
	"errors"
	"fmt"
)

const (
	// HeaderSize is the address header length.
	HeaderSize = 4
	// FCSSize is the trailing frame check sequence length.
	FCSSize = 2

	AckLen            = HeaderSize + FCSSize
	ScoutLen          = HeaderSize + 2 + FCSSize
	ImmediateScoutLen = HeaderSize + 4 + FCSSize

	// DefaultControl is the control byte used for outbound scouts and data.
	DefaultControl uint8 = 0x80
)

// ErrFrameTooShort is returned for frames shorter than the address header.
var ErrFrameTooShort = errors.New("frame too short")

// FrameKind is the inferred type of a received frame.
type FrameKind uint8

const (
	KindData FrameKind = iota
	KindScout
	KindImmediateScout
	KindAck
	KindBroadcast
)

// String returns a human-readable name for the frame kind.
func (k FrameKind) String() string {
	switch k {
	case KindData:
		return "Data"
	case KindScout:
		return "Scout"
	case KindImmediateScout:
		return "ImmediateScout"
	case KindAck:
		return "Ack"
	case KindBroadcast:
		return "Broadcast"
	default:
		return "Unknown"
	}
}

// Classify infers the kind of a frame from its total length (FCS included)
// and destination station.
func Classify(frame []byte) (FrameKind, error) {
	if len(frame) < HeaderSize {
		return 0, fmt.Errorf("%w: %d bytes (minimum %d)", ErrFrameTooShort, len(frame), HeaderSize)
	}
	switch len(frame) {
	case ScoutLen:
		return KindScout, nil
	case ImmediateScoutLen:
		return KindImmediateScout, nil
	case AckLen:
		return KindAck, nil
	}
	if frame[0] == 0 {
		return KindBroadcast, nil
	}
	return KindData, nil
}

// Header is the address header common to all frames.
type Header struct {
	Dst Address
	Src Address
}

// ParseHeader decodes the address header.
func ParseHeader(frame []byte) (Header, error) {
	if len(frame) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes (minimum %d)", ErrFrameTooShort, len(frame), HeaderSize)
	}
	return Header{
		Dst: Address{Station: frame[0], Net: frame[1]},
		Src: Address{Station: frame[2], Net: frame[3]},
	}, nil
}

// Word returns the header as it appears on the wire. Two frames with equal
// words travel between the same pair of stations in the same direction.
func (h Header) Word() [HeaderSize]byte {
	return [HeaderSize]byte{h.Dst.Station, h.Dst.Net, h.Src.Station, h.Src.Net}
}

// String formats the header as src > dst.
func (h Header) String() string {
	return fmt.Sprintf("%03d.%03d > %03d.%03d", h.Src.Net, h.Src.Station, h.Dst.Net, h.Dst.Station)
}

// RawFrame is a received frame including its trailing FCS.
type RawFrame []byte

// Kind classifies the frame.
func (f RawFrame) Kind() (FrameKind, error) {
	return Classify(f)
}

// Header decodes the frame's address header.
func (f RawFrame) Header() (Header, error) {
	return ParseHeader(f)
}

// Body returns the bytes between the header and the FCS.
func (f RawFrame) Body() []byte {
	if len(f) < HeaderSize+FCSSize {
		return nil
	}
	return f[HeaderSize : len(f)-FCSSize]
}

// Scout is the body of a scout frame.
type Scout struct {
	Control uint8
	Port    Port
}

// ImmediateScout is the body of an immediate scout frame.
type ImmediateScout struct {
	Control uint8
	Op      ImmediateOp
}

// DataBody is the body of a data or broadcast frame.
type DataBody struct {
	Control uint8
	Port    Port
	Payload []byte
}

// Scout decodes a scout frame body.
func (f RawFrame) Scout() (Scout, error) {
	kind, err := f.Kind()
	if err != nil {
		return Scout{}, err
	}
	if kind != KindScout {
		return Scout{}, fmt.Errorf("not a scout frame: %s", kind)
	}
	body := f.Body()
	return Scout{Control: body[0], Port: Port(body[1])}, nil
}

// ImmediateScout decodes an immediate scout frame body.
func (f RawFrame) ImmediateScout() (ImmediateScout, error) {
	kind, err := f.Kind()
	if err != nil {
		return ImmediateScout{}, err
	}
	if kind != KindImmediateScout {
		return ImmediateScout{}, fmt.Errorf("not an immediate scout frame: %s", kind)
	}
	body := f.Body()
	return ImmediateScout{Control: body[0], Op: ImmediateOp(body[1])}, nil
}

// Data decodes a data or broadcast frame body. The payload aliases f.
func (f RawFrame) Data() (DataBody, error) {
	kind, err := f.Kind()
	if err != nil {
		return DataBody{}, err
	}
	if kind != KindData && kind != KindBroadcast {
		return DataBody{}, fmt.Errorf("not a data frame: %s", kind)
	}
	body := f.Body()
	if len(body) < 2 {
		return DataBody{}, fmt.Errorf("%w: data body %d bytes (minimum 2)", ErrFrameTooShort, len(body))
	}
	return DataBody{Control: body[0], Port: Port(body[1]), Payload: body[2:]}, nil
}

// PutHeader writes the address header into b and returns the bytes written.
func PutHeader(b []byte, dst, src Address) int {
	b[0] = dst.Station
	b[1] = dst.Net
	b[2] = src.Station
	b[3] = src.Net
	return HeaderSize
}

// PutScout writes a scout frame (without FCS) into b.
func PutScout(b []byte, dst, src Address, control uint8, port Port) int {
	n := PutHeader(b, dst, src)
	b[n] = control
	b[n+1] = uint8(port)
	return n + 2
}

// PutData writes a data frame (without FCS) into b. b must hold
// HeaderSize+2+len(payload) bytes.
func PutData(b []byte, dst, src Address, control uint8, port Port, payload []byte) int {
	n := PutScout(b, dst, src, control, port)
	return n + copy(b[n:], payload)
}

// AppendAck appends an ack frame (without FCS) to b.
func AppendAck(b []byte, dst, src Address) []byte {
	return append(b, dst.Station, dst.Net, src.Station, src.Net)
}

// AppendScout appends a scout frame (without FCS) to b.
func AppendScout(b []byte, dst, src Address, control uint8, port Port) []byte {
	b = AppendAck(b, dst, src)
	return append(b, control, uint8(port))
}

// AppendData appends a data frame (without FCS) to b.
func AppendData(b []byte, dst, src Address, control uint8, port Port, payload []byte) []byte {
	b = AppendScout(b, dst, src, control, port)
	return append(b, payload...)
}
