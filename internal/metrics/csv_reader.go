package metrics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// ReadMetricsCSV reads a file written by Writer. It also returns the first
// and last timestamps so callers can report the span covered.
func ReadMetricsCSV(path string) ([]Metric, time.Time, time.Time, error) {
	var first, last time.Time
	file, err := os.Open(path)
	if err != nil {
		return nil, first, last, fmt.Errorf("open metrics CSV: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if err != nil {
		return nil, first, last, fmt.Errorf("read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{"timestamp", "operation", "success"} {
		if _, ok := col[name]; !ok {
			return nil, first, last, fmt.Errorf("CSV missing required column: %s", name)
		}
	}

	var metrics []Metric
	for row := 2; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, first, last, fmt.Errorf("read CSV row %d: %w", row, err)
		}
		get := func(name string) string {
			if i, ok := col[name]; ok && i < len(record) {
				return record[i]
			}
			return ""
		}

		m := Metric{
			Operation: OperationType(get("operation")),
			Station:   get("station"),
			Success:   get("success") == "true",
			Outcome:   get("outcome"),
			Error:     get("error"),
			Function:  get("function"),
		}
		if ts, err := time.Parse(time.RFC3339Nano, get("timestamp")); err == nil {
			m.Timestamp = ts
			if first.IsZero() {
				first = ts
			}
			last = ts
		}
		if v, err := strconv.ParseUint(get("port"), 16, 8); err == nil {
			m.Port = uint8(v)
		}
		m.Bytes, _ = strconv.Atoi(get("bytes"))
		m.RTTMs, _ = strconv.ParseFloat(get("rtt_ms"), 64)
		metrics = append(metrics, m)
	}

	if len(metrics) == 0 {
		return nil, first, last, fmt.Errorf("no data rows in %s", path)
	}
	return metrics, first, last, nil
}
