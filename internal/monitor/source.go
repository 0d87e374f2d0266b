package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Source yields captured frames, FCS included.
type Source interface {
	RecvFrame(ctx context.Context, buf []byte) (int, error)
}

// RecvFrame implements Source for replay. Timestamps come from the capture.
func (r *PcapReader) RecvFrame(ctx context.Context, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data, _, err := r.ReadFrame()
	if err != nil {
		return 0, err
	}
	return copy(buf, data), nil
}

// Capture is one decoded frame. Frame is nil for a trailing summary.
type Capture struct {
	Time  time.Time
	Frame []byte
	Lines []string
}

// Watcher reads frames from a source, decodes them and optionally records
// them to a pcap file.
type Watcher struct {
	Source  Source
	Decoder *Decoder
	Record  *PcapWriter
}

// Run delivers each capture to fn until the source is exhausted or ctx is
// done. A pending ack run is flushed before returning.
func (w *Watcher) Run(ctx context.Context, fn func(Capture) error) error {
	if w.Decoder == nil {
		w.Decoder = NewDecoder()
	}
	buf := make([]byte, 2048)
	for {
		n, err := w.Source.RecvFrame(ctx, buf)
		if err != nil {
			if lines := w.Decoder.Flush(); len(lines) > 0 {
				if ferr := fn(Capture{Time: w.timestamp(), Lines: lines}); ferr != nil {
					return ferr
				}
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])
		ts := w.timestamp()
		if w.Record != nil {
			if err := w.Record.WriteFrame(ts, frame); err != nil {
				return fmt.Errorf("record frame: %w", err)
			}
		}
		lines := w.Decoder.Decode(frame)
		if err := fn(Capture{Time: ts, Frame: frame, Lines: lines}); err != nil {
			return err
		}
	}
}

func (w *Watcher) timestamp() time.Time {
	if r, ok := w.Source.(*PcapReader); ok && !r.LastTimestamp().IsZero() {
		return r.LastTimestamp()
	}
	return time.Now()
}
