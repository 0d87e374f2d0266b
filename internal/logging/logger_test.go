package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// logToFile runs fn against a file-backed logger and returns what it wrote.
func logToFile(t *testing.T, level LogLevel, format string, fn func(l *Logger)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "econetd.log")
	l, err := NewLoggerWithOptions(level, path, format, 1)
	if err != nil {
		t.Fatalf("NewLoggerWithOptions: %v", err)
	}
	fn(l)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   LogLevel
		want    []string
		notWant []string
	}{
		{LogLevelSilent, nil, []string{"ERROR", "INFO", "VERBOSE", "DEBUG"}},
		{LogLevelError, []string{"ERROR: tx failed"}, []string{"INFO", "VERBOSE", "DEBUG"}},
		{LogLevelInfo, []string{"ERROR: tx failed", "INFO: station up"}, []string{"VERBOSE", "DEBUG"}},
		{LogLevelDebug, []string{"ERROR: tx failed", "INFO: station up", "VERBOSE: scout acked", "DEBUG: rx window"}, nil},
	}
	for _, tc := range tests {
		t.Run(strings.ToLower(levelName(tc.level)), func(t *testing.T) {
			out := logToFile(t, tc.level, "text", func(l *Logger) {
				l.Error("tx failed")
				l.Info("station up")
				l.Verbose("scout acked")
				l.Debug("rx window")
			})
			for _, w := range tc.want {
				if !strings.Contains(out, w) {
					t.Errorf("missing %q in:\n%s", w, out)
				}
			}
			for _, nw := range tc.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("unexpected %q in:\n%s", nw, out)
				}
			}
		})
	}
}

func levelName(l LogLevel) string {
	return [...]string{"Silent", "Error", "Info", "Verbose", "Debug"}[l]
}

func TestOptionDefaults(t *testing.T) {
	l, err := NewLoggerWithOptions(LogLevelInfo, "", "", 0)
	if err != nil {
		t.Fatalf("NewLoggerWithOptions: %v", err)
	}
	defer l.Close()
	if l.format != "text" || l.logEvery != 1 || l.file != nil {
		t.Errorf("defaults: format=%q logEvery=%d file=%v", l.format, l.logEvery, l.file)
	}

	if _, err := NewLogger(LogLevelInfo, filepath.Join(t.TempDir(), "missing", "x.log")); err == nil {
		t.Error("expected error creating log file in a missing directory")
	}
}

func TestSamplingKeepsFileComplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sampled.log")
	l, err := NewLoggerWithOptions(LogLevelInfo, path, "text", 4)
	if err != nil {
		t.Fatalf("NewLoggerWithOptions: %v", err)
	}
	for i := 0; i < 8; i++ {
		l.Info("frame %d", i)
	}
	if l.counter != 8 {
		t.Errorf("counter = %d, want 8", l.counter)
	}
	l.Close()

	data, _ := os.ReadFile(path)
	if n := len(strings.Split(strings.TrimSpace(string(data)), "\n")); n != 8 {
		t.Errorf("file has %d lines, want 8", n)
	}
}

func TestJSONFormat(t *testing.T) {
	out := logToFile(t, LogLevelInfo, "json", func(l *Logger) {
		l.Info("listening on %02x", 0x99)
	})
	for _, want := range []string{`"level":"info"`, `"message":"listening on 99"`, `"time":`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestTransmitAndStartupHelpers(t *testing.T) {
	out := logToFile(t, LogLevelVerbose, "text", func(l *Logger) {
		l.LogStartup("fileserver", "0.254", "loopback", []string{"99"})
		l.LogTransmit("0.2:99", 5, "Done", 1.234, nil)
		l.LogTransmit("0.3:99", 8, "Unreachable", 0, errors.New("not listening"))
	})
	for _, want := range []string{
		"INFO: Starting Econet fileserver",
		"VERBOSE:   Station: 0.254",
		"VERBOSE:   Ports: 99",
		"VERBOSE: TX 5 bytes to 0.2:99 (status: Done, RTT: 1.234ms)",
		"INFO: TX 8 bytes to 0.3:99 (status: Unreachable, RTT: 0.000ms) - error: not listening",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLogHex(t *testing.T) {
	frame := []byte{0xFE, 0x00, 0x65, 0x00, 0x80, 0x99}
	if out := logToFile(t, LogLevelDebug, "text", func(l *Logger) { l.LogHex("rx", frame) }); !strings.Contains(out, "DEBUG: rx: fe 00 65 00 80 99") {
		t.Errorf("hex line missing: %q", out)
	}
	if out := logToFile(t, LogLevelVerbose, "text", func(l *Logger) { l.LogHex("rx", frame) }); out != "" {
		t.Errorf("hex logged below debug: %q", out)
	}
}

func TestSetLevel(t *testing.T) {
	l, _ := NewLogger(LogLevelInfo, "")
	defer l.Close()
	l.SetLevel(LogLevelDebug)
	if l.GetLevel() != LogLevelDebug {
		t.Errorf("GetLevel = %d", l.GetLevel())
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	l.Info("dropped")
	l.Error("dropped")
	l.LogHex("dropped", []byte{1})
	if err := l.Close(); err != nil {
		t.Errorf("Close on nil logger: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"silent":  LogLevelSilent,
		"none":    LogLevelSilent,
		"error":   LogLevelError,
		"info":    LogLevelInfo,
		"VERBOSE": LogLevelVerbose,
		" debug ": LogLevelDebug,
		"bogus":   LogLevelInfo,
	}
	for name, want := range tests {
		if got := ParseLevel(name); got != want {
			t.Errorf("ParseLevel(%q) = %d, want %d", name, got, want)
		}
	}
}
