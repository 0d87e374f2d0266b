package capture

// Passive capture of AUN traffic. Econet frames carried over UDP are pulled
// off a network interface with libpcap, so a monitor can watch stations it
// is not itself part of.

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/acornnet/econetd/internal/econet"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

const snapLen = 65535

// Live yields the Econet frames seen in AUN datagrams on one interface.
type Live struct {
	handle  *pcap.Handle
	packets chan gopacket.Packet

	stopOnce sync.Once
	stop     chan struct{}
}

// Filter returns the BPF expression matching the given UDP ports. An empty
// list matches all UDP traffic.
func Filter(ports []int) string {
	uniq := make(map[int]bool, len(ports))
	var sorted []int
	for _, p := range ports {
		if p > 0 && !uniq[p] {
			uniq[p] = true
			sorted = append(sorted, p)
		}
	}
	if len(sorted) == 0 {
		return "udp"
	}
	sort.Ints(sorted)
	terms := make([]string, len(sorted))
	for i, p := range sorted {
		terms[i] = "udp port " + strconv.Itoa(p)
	}
	return strings.Join(terms, " or ")
}

// OpenLive starts capturing on iface, restricted to the AUN ports.
func OpenLive(iface string, ports []int) (*Live, error) {
	handle, err := pcap.OpenLive(iface, snapLen, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("open live capture: %w", err)
	}
	if err := handle.SetBPFFilter(Filter(ports)); err != nil {
		handle.Close()
		return nil, fmt.Errorf("set BPF filter: %w", err)
	}

	l := &Live{
		handle:  handle,
		packets: make(chan gopacket.Packet, 64),
		stop:    make(chan struct{}),
	}
	go l.captureLoop()
	return l, nil
}

func (l *Live) captureLoop() {
	defer close(l.packets)
	src := gopacket.NewPacketSource(l.handle, l.handle.LinkType())
	for {
		select {
		case <-l.stop:
			return
		case packet, ok := <-src.Packets():
			if !ok {
				return
			}
			select {
			case l.packets <- packet:
			case <-l.stop:
				return
			}
		}
	}
}

// RecvFrame returns the next captured frame. Datagrams too short to be a
// frame are skipped. It returns io.EOF once the capture is closed.
func (l *Live) RecvFrame(ctx context.Context, buf []byte) (int, error) {
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case packet, ok := <-l.packets:
			if !ok {
				return 0, io.EOF
			}
			if frame, ok := FrameFromPacket(packet); ok {
				return copy(buf, frame), nil
			}
		}
	}
}

// Close stops the capture. It is safe to call more than once.
func (l *Live) Close() error {
	l.stopOnce.Do(func() {
		close(l.stop)
		l.handle.Close()
	})
	return nil
}

// FrameFromPacket extracts the Econet frame from a captured AUN datagram.
func FrameFromPacket(packet gopacket.Packet) ([]byte, bool) {
	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return nil, false
	}
	udp, ok := udpLayer.(*layers.UDP)
	if !ok || len(udp.Payload) < econet.HeaderSize+econet.FCSSize {
		return nil, false
	}
	return udp.Payload, true
}

// Interfaces lists the devices libpcap can capture on.
func Interfaces() ([]string, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("find network devices: %w", err)
	}
	names := make([]string, 0, len(devs))
	for _, d := range devs {
		names = append(names, d.Name)
	}
	return names, nil
}
