package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	sink := NewSink()
	sink.Record(Metric{Operation: OperationSend, Station: "0.2", Port: 0x99, Bytes: 5, Success: true, RTTMs: 2, Outcome: OutcomeDone})
	sink.Record(Metric{Operation: OperationSend, Station: "0.2", Port: 0x99, Bytes: 8, Success: true, RTTMs: 4, Outcome: OutcomeDone})
	sink.Record(Metric{Operation: OperationSend, Station: "0.3", Port: 0x99, Outcome: OutcomeUnreachable, Error: "unreachable"})
	sink.Record(Metric{Operation: OperationRecv, Station: "0.2", Function: "0x40", Outcome: OutcomeRejected})

	s := sink.GetSummary()
	if s.TotalOperations != 4 || s.SuccessfulOps != 2 || s.FailedOps != 2 || s.TotalBytes != 13 {
		t.Fatalf("totals = %d/%d/%d bytes %d", s.TotalOperations, s.SuccessfulOps, s.FailedOps, s.TotalBytes)
	}
	if s.Failures[OutcomeUnreachable] != 1 || s.Failures[OutcomeRejected] != 1 {
		t.Errorf("failures = %v", s.Failures)
	}
	if s.RTT.Samples != 2 || s.RTT.Min != 2 || s.RTT.Max != 4 || s.RTT.Avg != 3 || s.RTT.P50 != 2 || s.RTT.P99 != 4 {
		t.Errorf("rtt = %+v", s.RTT)
	}
	if st := s.ByStation["0.2"]; st == nil || st.Count != 3 || st.Success != 2 || st.AvgRTT != 3 {
		t.Errorf("station 0.2 = %+v", st)
	}
	if st := s.ByFunction["0x40"]; st == nil || st.Failed != 1 {
		t.Errorf("function 0x40 = %+v", st)
	}
	if st := s.ByOperation[OperationSend]; st == nil || st.Count != 3 {
		t.Errorf("send stats = %+v", st)
	}
}

func TestRTTBuckets(t *testing.T) {
	tests := []struct {
		rtt    float64
		bucket int
	}{
		{0.5, 0},
		{1, 1},
		{4.9, 1},
		{10, 3},
		{99, 4},
		{100, 5},
		{250, 5},
	}
	for _, tc := range tests {
		st := rttStats([]float64{tc.rtt})
		if st.Buckets[tc.bucket] != 1 {
			t.Errorf("rtt %v: buckets = %v, want index %d", tc.rtt, st.Buckets, tc.bucket)
		}
	}
}

func TestNilSinkDiscards(t *testing.T) {
	var sink *Sink
	sink.Record(Metric{Operation: OperationSend})
}

func TestWriterFiles(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "metrics.csv")
	jsonPath := filepath.Join(dir, "summary.json")
	w, err := NewWriter(csvPath, jsonPath)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sink := NewSink()
	sink.Record(Metric{Timestamp: start, Operation: OperationSend, Station: "0.2", Port: 0x99, Bytes: 5, Success: true, RTTMs: 1.5, Outcome: OutcomeDone})
	sink.Record(Metric{Timestamp: start.Add(time.Second), Operation: OperationRecv, Station: "5.9", Port: 0x90, Bytes: 8, Outcome: OutcomeTimeout, Error: "timeout", Function: "CommandLine"})
	if err := w.WriteAll(sink); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, first, last, err := ReadMetricsCSV(csvPath)
	if err != nil {
		t.Fatalf("ReadMetricsCSV: %v", err)
	}
	if len(got) != 2 || !first.Equal(start) || !last.Equal(start.Add(time.Second)) {
		t.Fatalf("read %d metrics spanning %v..%v", len(got), first, last)
	}
	if got[0].RTTMs != 1.5 || got[1].Port != 0x90 || got[1].Function != "CommandLine" {
		t.Errorf("metrics = %+v", got)
	}
	if s := SinkFrom(got).GetSummary(); s.Failures[OutcomeTimeout] != 1 || s.SuccessfulOps != 1 {
		t.Errorf("rebuilt summary = %+v", s)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("summary is not JSON: %v\n%s", err, data)
	}
	if summary.TotalOperations != 2 || summary.ByStation["5.9"] == nil {
		t.Errorf("json summary = %s", data)
	}
}

func TestReadMetricsCSVErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing", filepath.Join(dir, "nope.csv"), "open metrics CSV"},
		{"no column", write("cols.csv", "timestamp,station\n"), "missing required column: operation"},
		{"no rows", write("empty.csv", strings.Join(csvHeader, ",")+"\n"), "no data rows"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := ReadMetricsCSV(tc.path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestFormatSummary(t *testing.T) {
	if out := FormatSummary(NewSink().GetSummary()); out != "Total Operations: 0\n" {
		t.Errorf("empty summary = %q", out)
	}
	sink := NewSink()
	sink.Record(Metric{Operation: OperationSend, Station: "0.2", Success: true, RTTMs: 3})
	sink.Record(Metric{Operation: OperationSend, Station: "0.3", Outcome: OutcomeUnreachable})
	out := FormatSummary(sink.GetSummary())
	for _, want := range []string{
		"Total Operations: 2",
		"Unreachable: 1",
		"RTT (1 samples)",
		"<5ms=1",
		"Per-Station Statistics",
		"0.3: 1 ops (0 success, 1 failed)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
