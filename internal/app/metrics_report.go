package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/acornnet/econetd/internal/metrics"
)

func RunMetricsReport(path string) error {
	return MetricsReport(path, os.Stdout)
}

// MetricsReport summarises a metrics CSV written by the fileserver or send
// commands.
func MetricsReport(path string, out io.Writer) error {
	records, first, last, err := metrics.ReadMetricsCSV(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "=== econetd metrics report ===\n")
	fmt.Fprintf(out, "Source: %s\n", path)
	fmt.Fprintf(out, "Records: %d\n", len(records))
	if !first.IsZero() && !last.IsZero() {
		fmt.Fprintf(out, "Span: %s to %s (%s)\n", first.Format("2006-01-02 15:04:05"), last.Format("15:04:05"), last.Sub(first).Round(time.Millisecond))
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, metrics.FormatSummary(metrics.SinkFrom(records).GetSummary()))
	return nil
}
