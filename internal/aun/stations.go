package aun

// Station table in the b-em emulator format: one station per line,
//
//   net station host port
//
// Blank lines and lines starting with '#' are ignored.

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/acornnet/econetd/internal/econet"
)

// Station maps an Econet address to the UDP endpoint that carries its frames.
type Station struct {
	Addr econet.Address
	Host string
	Port int
}

// Endpoint returns host:port.
func (s Station) Endpoint() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ParseStation parses one "net station host port" entry.
func ParseStation(line string) (Station, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Station{}, fmt.Errorf("expected 'net station host port', got %d fields", len(fields))
	}
	netNum, err := strconv.ParseUint(fields[0], 10, 8)
	if err != nil {
		return Station{}, fmt.Errorf("invalid net %q: %w", fields[0], err)
	}
	stn, err := strconv.ParseUint(fields[1], 10, 8)
	if err != nil {
		return Station{}, fmt.Errorf("invalid station %q: %w", fields[1], err)
	}
	if stn == 0 {
		return Station{}, fmt.Errorf("station 0 is the broadcast address")
	}
	port, err := strconv.ParseUint(fields[3], 10, 16)
	if err != nil || port == 0 {
		return Station{}, fmt.Errorf("invalid port %q", fields[3])
	}
	return Station{
		Addr: econet.Address{Net: uint8(netNum), Station: uint8(stn)},
		Host: fields[2],
		Port: int(port),
	}, nil
}

// ParseStations reads a station table.
func ParseStations(r io.Reader) ([]Station, error) {
	var stations []Station
	seen := make(map[econet.Address]int)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		st, err := ParseStation(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if prev, dup := seen[st.Addr]; dup {
			return nil, fmt.Errorf("line %d: station %s already defined on line %d", lineNo, st.Addr, prev)
		}
		seen[st.Addr] = lineNo
		stations = append(stations, st)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}

// LoadStations reads a station table file.
func LoadStations(path string) ([]Station, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stations file: %w", err)
	}
	defer f.Close()
	stations, err := ParseStations(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return stations, nil
}
