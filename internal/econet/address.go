package econet

// Econet station addressing.
//
// A station is identified by a (network, station) pair. Station 0 on a
// destination address denotes a broadcast. Applications address a station
// plus a port, which names the service listening on that station.

import (
	"fmt"
	"strconv"
	"strings"
)

// Port is a logical service identifier on a station.
type Port uint8

const (
	// PortImmediate is reserved for immediate operations and cannot be
	// listened on.
	PortImmediate Port = 0x00
	// PortNetFS is the well-known fileserver port.
	PortNetFS Port = 0x99
)

// Address identifies a station on the network.
type Address struct {
	Net     uint8
	Station uint8
}

// IsBroadcast reports whether the address is the broadcast station.
func (a Address) IsBroadcast() bool {
	return a.Station == 0
}

// Word packs the address as net<<8 | station, the layout used by the
// station address register.
func (a Address) Word() uint16 {
	return uint16(a.Net)<<8 | uint16(a.Station)
}

// AddressFromWord unpacks a net<<8 | station word.
func AddressFromWord(w uint16) Address {
	return Address{Net: uint8(w >> 8), Station: uint8(w)}
}

// String formats the address as net.station.
func (a Address) String() string {
	return fmt.Sprintf("%d.%d", a.Net, a.Station)
}

// ParseAddress parses "net.station" or a bare "station" (net 0).
func ParseAddress(s string) (Address, error) {
	netPart, stnPart, found := strings.Cut(strings.TrimSpace(s), ".")
	if !found {
		netPart, stnPart = "0", netPart
	}
	n, err := strconv.ParseUint(netPart, 10, 8)
	if err != nil {
		return Address{}, fmt.Errorf("bad network number in %q", s)
	}
	st, err := strconv.ParseUint(stnPart, 10, 8)
	if err != nil {
		return Address{}, fmt.Errorf("bad station number in %q", s)
	}
	return Address{Net: uint8(n), Station: uint8(st)}, nil
}

// EconetAddress is a reply-to / send-to address carried in protocol messages.
type EconetAddress struct {
	Port    Port
	Net     uint8
	Station uint8
}

// Addr returns the station part of the address.
func (e EconetAddress) Addr() Address {
	return Address{Net: e.Net, Station: e.Station}
}

// String formats the address as net.station:port.
func (e EconetAddress) String() string {
	return fmt.Sprintf("%d.%d:%02x", e.Net, e.Station, uint8(e.Port))
}
