package econet

import (
	"encoding/binary"

	"github.com/sigurn/crc16"
)

// The interface chip computes the HDLC frame check sequence (CRC-16/X.25),
// transmitted low byte first.
var fcsTable = crc16.MakeTable(crc16.CRC16_X_25)

// FCS computes the frame check sequence over b.
func FCS(b []byte) uint16 {
	return crc16.Checksum(b, fcsTable)
}

// AppendFCS appends the frame check sequence of b to b.
func AppendFCS(b []byte) []byte {
	return binary.LittleEndian.AppendUint16(b, FCS(b))
}

// CheckFCS reports whether the trailing two bytes of frame are a valid FCS
// for the bytes before them.
func CheckFCS(frame []byte) bool {
	if len(frame) < FCSSize {
		return false
	}
	n := len(frame) - FCSSize
	return FCS(frame[:n]) == binary.LittleEndian.Uint16(frame[n:])
}
