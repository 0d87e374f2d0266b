package netfs

// NetFS request framing.
//
// A request is the payload of a data frame sent to the fileserver port:
//
//   reply_station reply_net reply_port function_code urd csd lib payload...
//
// The reply address names where the server's response goes. urd, csd and lib
// are directory handles the client received at login.

import (
	"fmt"

	"github.com/acornnet/econetd/internal/econet"
)

// HeaderSize is the request header length.
const HeaderSize = 7

// Message is a parsed request.
type Message struct {
	ReplyAddr econet.EconetAddress
	Function  FunctionCode
	URD       uint8
	CSD       uint8
	LIB       uint8
	// Payload is the bytes after the header. The backing array holds a NUL
	// at Payload[len(Payload)] so handlers can scan it as a string.
	Payload []byte
}

// ParseMessage parses a request from a received data payload. The payload is
// copied; buf may be reused by the caller.
func ParseMessage(buf []byte) (Message, error) {
	if len(buf) < HeaderSize {
		return Message{}, fmt.Errorf("%w: %d bytes (minimum %d)", ErrMalformed, len(buf), HeaderSize)
	}
	fc := FunctionCode(buf[3])
	if !fc.IsKnown() {
		return Message{}, &UnknownFunctionError{Code: buf[3]}
	}

	body := make([]byte, len(buf)-HeaderSize+1)
	copy(body, buf[HeaderSize:])
	return Message{
		ReplyAddr: econet.EconetAddress{
			Station: buf[0],
			Net:     buf[1],
			Port:    econet.Port(buf[2]),
		},
		Function: fc,
		URD:      buf[4],
		CSD:      buf[5],
		LIB:      buf[6],
		Payload:  body[:len(body)-1],
	}, nil
}

// ParseRequest parses a request from a complete data frame (FCS included).
func ParseRequest(frame econet.RawFrame) (Message, error) {
	d, err := frame.Data()
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return ParseMessage(d.Payload)
}

// Text returns the payload as a string, stopping at the first NUL or CR.
func (m Message) Text() string {
	for i, b := range m.Payload {
		if b == 0 || b == '\r' {
			return string(m.Payload[:i])
		}
	}
	return string(m.Payload)
}

// AppendMessage encodes a request header and payload; the inverse of
// ParseMessage.
func AppendMessage(b []byte, m Message) []byte {
	b = append(b,
		m.ReplyAddr.Station,
		m.ReplyAddr.Net,
		uint8(m.ReplyAddr.Port),
		uint8(m.Function),
		m.URD,
		m.CSD,
		m.LIB,
	)
	return append(b, m.Payload...)
}
