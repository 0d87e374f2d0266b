package monitor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// LinkTypeEconet is the pcap link type used for captured frames
// (DLT_USER0). Records hold the raw frame with its FCS.
const LinkTypeEconet = layers.LinkType(147)

const snapLen = 65535

// PcapWriter records captured frames to a pcap file.
type PcapWriter struct {
	file   *os.File
	writer *pcapgo.Writer
	count  int
}

// CreatePcap creates path and writes the file header.
func CreatePcap(path string) (*PcapWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create pcap: %w", err)
	}
	writer := pcapgo.NewWriter(file)
	if err := writer.WriteFileHeader(snapLen, LinkTypeEconet); err != nil {
		file.Close()
		return nil, fmt.Errorf("write pcap header: %w", err)
	}
	return &PcapWriter{file: file, writer: writer}, nil
}

// WriteFrame appends one frame.
func (w *PcapWriter) WriteFrame(ts time.Time, frame []byte) error {
	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(frame),
		Length:        len(frame),
	}
	if err := w.writer.WritePacket(ci, frame); err != nil {
		return fmt.Errorf("write pcap record: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of frames written.
func (w *PcapWriter) Count() int {
	return w.count
}

// Close closes the file.
func (w *PcapWriter) Close() error {
	return w.file.Close()
}

// PcapReader replays frames from a pcap file. It implements Source.
type PcapReader struct {
	file   *os.File
	reader *pcapgo.Reader
	last   time.Time
}

// OpenPcap opens a capture written by PcapWriter.
func OpenPcap(path string) (*PcapReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pcap: %w", err)
	}
	reader, err := pcapgo.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read pcap header: %w", err)
	}
	if reader.LinkType() != LinkTypeEconet {
		file.Close()
		return nil, fmt.Errorf("pcap link type %d is not an Econet capture (want %d)", reader.LinkType(), LinkTypeEconet)
	}
	return &PcapReader{file: file, reader: reader}, nil
}

// ReadFrame returns the next frame and its capture time. It returns io.EOF
// at the end of the file.
func (r *PcapReader) ReadFrame() ([]byte, time.Time, error) {
	data, ci, err := r.reader.ReadPacketData()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, time.Time{}, io.EOF
		}
		return nil, time.Time{}, err
	}
	r.last = ci.Timestamp
	return data, ci.Timestamp, nil
}

// LastTimestamp returns the capture time of the frame last read.
func (r *PcapReader) LastTimestamp() time.Time {
	return r.last
}

// Close closes the file.
func (r *PcapReader) Close() error {
	return r.file.Close()
}
