package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"timestamp",
	"operation",
	"station",
	"port",
	"bytes",
	"success",
	"rtt_ms",
	"outcome",
	"error",
	"function",
}

// Writer streams metrics to a CSV file and, on Close, writes a JSON summary
// of everything it was given.
type Writer struct {
	csvFile   *os.File
	csvWriter *csv.Writer
	jsonPath  string
	written   []Metric
}

// NewWriter creates a writer. Either path may be empty.
func NewWriter(csvPath, jsonPath string) (*Writer, error) {
	w := &Writer{jsonPath: jsonPath}
	if csvPath == "" {
		return w, nil
	}
	file, err := os.Create(csvPath)
	if err != nil {
		return nil, fmt.Errorf("create CSV file: %w", err)
	}
	w.csvFile = file
	w.csvWriter = csv.NewWriter(file)
	if err := w.csvWriter.Write(csvHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("write CSV header: %w", err)
	}
	return w, nil
}

// WriteMetric appends one CSV row.
func (w *Writer) WriteMetric(m Metric) error {
	if w.jsonPath != "" {
		w.written = append(w.written, m)
	}
	if w.csvWriter == nil {
		return nil
	}
	port := ""
	if m.Port != 0 {
		port = fmt.Sprintf("%02x", m.Port)
	}
	rtt := ""
	if m.RTTMs != 0 {
		rtt = strconv.FormatFloat(m.RTTMs, 'f', 3, 64)
	}
	if err := w.csvWriter.Write([]string{
		m.Timestamp.Format(time.RFC3339Nano),
		string(m.Operation),
		m.Station,
		port,
		strconv.Itoa(m.Bytes),
		strconv.FormatBool(m.Success),
		rtt,
		m.Outcome,
		m.Error,
		m.Function,
	}); err != nil {
		return fmt.Errorf("write CSV record: %w", err)
	}
	return nil
}

// WriteAll writes every metric recorded by the sink.
func (w *Writer) WriteAll(s *Sink) error {
	for _, m := range s.GetMetrics() {
		if err := w.WriteMetric(m); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes the CSV file and writes the JSON summary.
func (w *Writer) Close() error {
	var firstErr error
	if w.csvWriter != nil {
		w.csvWriter.Flush()
		firstErr = w.csvWriter.Error()
		if err := w.csvFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if w.jsonPath != "" {
		if err := WriteJSONSummary(w.jsonPath, Summarize(w.written)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WriteJSONSummary writes summary as an indented JSON document.
func WriteJSONSummary(path string, summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write JSON summary: %w", err)
	}
	return nil
}

// failureLabels orders the failure lines of FormatSummary.
var failureLabels = []struct{ outcome, label string }{
	{OutcomeUnreachable, "Unreachable"},
	{OutcomeTimeout, "Timeouts"},
	{OutcomeNetError, "Network Errors"},
	{OutcomeRejected, "Rejected"},
}

// FormatSummary renders a summary for the console.
func FormatSummary(summary *Summary) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Total Operations: %d\n", summary.TotalOperations)
	if summary.TotalOperations == 0 {
		return buf.String()
	}
	pct := func(n int) float64 { return float64(n) / float64(summary.TotalOperations) * 100 }
	fmt.Fprintf(&buf, "Successful: %d (%.1f%%)\n", summary.SuccessfulOps, pct(summary.SuccessfulOps))
	fmt.Fprintf(&buf, "Failed: %d (%.1f%%)\n", summary.FailedOps, pct(summary.FailedOps))
	fmt.Fprintf(&buf, "Bytes: %d\n", summary.TotalBytes)
	for _, f := range failureLabels {
		if n := summary.Failures[f.outcome]; n > 0 {
			fmt.Fprintf(&buf, "%s: %d\n", f.label, n)
		}
	}

	if rtt := summary.RTT; rtt.Samples > 0 {
		fmt.Fprintf(&buf, "\nRTT (%d samples): min %.3f ms, avg %.3f ms, max %.3f ms\n", rtt.Samples, rtt.Min, rtt.Avg, rtt.Max)
		fmt.Fprintf(&buf, "  P50 %.3f ms, P90 %.3f ms, P99 %.3f ms\n", rtt.P50, rtt.P90, rtt.P99)
		buf.WriteString("  Buckets:")
		for i, n := range rtt.Buckets {
			if i < len(RTTBounds) {
				fmt.Fprintf(&buf, " <%gms=%d", RTTBounds[i], n)
			} else {
				fmt.Fprintf(&buf, " >=%gms=%d", RTTBounds[len(RTTBounds)-1], n)
			}
		}
		buf.WriteString("\n")
	}

	writeStats(&buf, "Per-Operation", summary.ByOperation)
	writeStats(&buf, "Per-Station", summary.ByStation)
	writeStats(&buf, "Per-Function", summary.ByFunction)
	return buf.String()
}

func writeStats[K ~string](buf *strings.Builder, title string, stats map[K]*OperationStats) {
	if len(stats) == 0 {
		return
	}
	keys := make([]K, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	fmt.Fprintf(buf, "\n%s Statistics:\n", title)
	for _, k := range keys {
		s := stats[k]
		fmt.Fprintf(buf, "  %s: %d ops (%d success, %d failed)", k, s.Count, s.Success, s.Failed)
		if s.MaxRTT > 0 {
			fmt.Fprintf(buf, " avg %.3fms max %.3fms", s.AvgRTT, s.MaxRTT)
		}
		buf.WriteString("\n")
	}
}
