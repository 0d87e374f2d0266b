package aun

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/acornnet/econetd/internal/econet"
	"github.com/acornnet/econetd/internal/logging"
)

// MaxDatagram bounds a single frame on the UDP transport.
const MaxDatagram = 2048

// Options configures a Wire.
type Options struct {
	// Listen is the local UDP address, e.g. "0.0.0.0:32768".
	Listen   string
	Stations []Station
	// Self is excluded from broadcasts.
	Self   econet.Address
	Logger *logging.Logger
}

// Wire carries Econet frames as UDP datagrams, one frame per datagram.
// A frame for a station goes to that station's endpoint; a broadcast goes to
// every station in the table except Self.
type Wire struct {
	conn   *net.UDPConn
	peers  map[econet.Address]*net.UDPAddr
	self   econet.Address
	frames chan []byte
	logger *logging.Logger

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// Open binds the UDP socket and starts the reader.
func Open(opts Options) (*Wire, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", opts.Listen)
	if err != nil {
		return nil, fmt.Errorf("resolve UDP address: %w", err)
	}

	peers := make(map[econet.Address]*net.UDPAddr, len(opts.Stations))
	for _, st := range opts.Stations {
		addr, err := net.ResolveUDPAddr("udp", st.Endpoint())
		if err != nil {
			return nil, fmt.Errorf("resolve station %s: %w", st.Addr, err)
		}
		peers[st.Addr] = addr
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen UDP: %w", err)
	}

	w := &Wire{
		conn:   conn,
		peers:  peers,
		self:   opts.Self,
		frames: make(chan []byte, 64),
		logger: opts.Logger,
		done:   make(chan struct{}),
	}
	w.logger.Info("Econet UDP transport listening on %s (%d stations)", conn.LocalAddr(), len(peers))

	w.wg.Add(1)
	go w.readLoop()
	return w, nil
}

// LocalAddr returns the bound UDP address.
func (w *Wire) LocalAddr() *net.UDPAddr {
	addr, _ := w.conn.LocalAddr().(*net.UDPAddr)
	return addr
}

// Transmit sends a frame to its destination station.
func (w *Wire) Transmit(frame []byte) error {
	hdr, err := econet.ParseHeader(frame)
	if err != nil {
		return err
	}
	if hdr.Dst.IsBroadcast() {
		for addr, peer := range w.peers {
			if addr == w.self {
				continue
			}
			if _, err := w.conn.WriteToUDP(frame, peer); err != nil {
				w.logger.Debug("broadcast to %s failed: %v", addr, err)
			}
		}
		return nil
	}
	peer, ok := w.peers[hdr.Dst]
	if !ok {
		// Nobody on the line with that address: the frame is simply lost.
		w.logger.Debug("no station table entry for %s", hdr.Dst)
		return nil
	}
	if _, err := w.conn.WriteToUDP(frame, peer); err != nil {
		return fmt.Errorf("send to %s: %w", hdr.Dst, err)
	}
	return nil
}

// Frames delivers received datagrams.
func (w *Wire) Frames() <-chan []byte {
	return w.frames
}

// Close shuts down the socket and waits for the reader to exit.
func (w *Wire) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.conn.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Wire) readLoop() {
	defer w.wg.Done()
	defer close(w.frames)

	buf := make([]byte, MaxDatagram)
	for {
		w.conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		n, from, err := w.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-w.done:
				return
			default:
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			w.logger.Error("UDP read error: %v", err)
			continue
		}
		if n < econet.HeaderSize+econet.FCSSize {
			w.logger.Debug("runt datagram (%d bytes) from %s", n, from)
			continue
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])
		select {
		case w.frames <- frame:
		case <-w.done:
			return
		}
	}
}
