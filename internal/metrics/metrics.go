package metrics

// Metrics collection for Econet link operations

import (
	"math"
	"sort"
	"sync"
	"time"
)

// OperationType represents the type of link operation
type OperationType string

const (
	OperationSend    OperationType = "SEND"
	OperationRecv    OperationType = "RECV"
	OperationMonitor OperationType = "MONITOR"
)

// Outcome names recorded in Metric.Outcome.
const (
	OutcomeDone        = "done"
	OutcomeUnreachable = "unreachable"
	OutcomeTimeout     = "timeout"
	OutcomeNetError    = "net_error"
	OutcomeRejected    = "rejected"
)

// Metric is one transmission, received request or captured frame.
type Metric struct {
	Timestamp time.Time     `json:"timestamp"`
	Operation OperationType `json:"operation"`
	Station   string        `json:"station,omitempty"`
	Port      uint8         `json:"port"`
	Bytes     int           `json:"bytes"`
	Success   bool          `json:"success"`
	RTTMs     float64       `json:"rtt_ms,omitempty"`
	Outcome   string        `json:"outcome,omitempty"`
	Error     string        `json:"error,omitempty"`
	Function  string        `json:"function,omitempty"` // NetFS function or frame kind
}

// Sink collects metrics. It is safe for concurrent use; a nil Sink
// discards everything recorded to it.
type Sink struct {
	mu      sync.RWMutex
	metrics []Metric
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// SinkFrom rebuilds a sink from previously recorded metrics.
func SinkFrom(metrics []Metric) *Sink {
	s := NewSink()
	s.metrics = append(s.metrics, metrics...)
	return s
}

// Record stores m, stamping it with the current time if it has none.
func (s *Sink) Record(m Metric) {
	if s == nil {
		return
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	s.mu.Lock()
	s.metrics = append(s.metrics, m)
	s.mu.Unlock()
}

// GetMetrics returns a copy of all recorded metrics.
func (s *Sink) GetMetrics() []Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Metric(nil), s.metrics...)
}

// GetSummary aggregates everything recorded so far. The result is not
// shared with the sink.
func (s *Sink) GetSummary() *Summary {
	return Summarize(s.GetMetrics())
}

// RTTBounds are the upper edges in ms of the RTT histogram buckets. A
// handshake normally completes in a few ms; anything past the 100ms transmit
// timeout has already failed.
var RTTBounds = []float64{1, 5, 10, 50, 100}

// Summary contains aggregated statistics.
type Summary struct {
	TotalOperations int                               `json:"total_operations"`
	SuccessfulOps   int                               `json:"successful"`
	FailedOps       int                               `json:"failed"`
	TotalBytes      int                               `json:"bytes"`
	Failures        map[string]int                    `json:"failures"` // failed operations by outcome
	RTT             RTTStats                          `json:"rtt"`
	ByOperation     map[OperationType]*OperationStats `json:"by_operation"`
	ByStation       map[string]*OperationStats        `json:"by_station"`
	ByFunction      map[string]*OperationStats        `json:"by_function"`
}

// RTTStats describes the round-trip times of successful operations.
// Buckets has one entry per RTTBounds edge plus an overflow bucket.
type RTTStats struct {
	Samples int     `json:"samples"`
	Min     float64 `json:"min_ms"`
	Max     float64 `json:"max_ms"`
	Avg     float64 `json:"avg_ms"`
	P50     float64 `json:"p50_ms"`
	P90     float64 `json:"p90_ms"`
	P99     float64 `json:"p99_ms"`
	Buckets []int   `json:"buckets"`
}

// OperationStats counts one operation type, station or function.
type OperationStats struct {
	Count   int     `json:"count"`
	Success int     `json:"success"`
	Failed  int     `json:"failed"`
	AvgRTT  float64 `json:"avg_rtt_ms,omitempty"`
	MaxRTT  float64 `json:"max_rtt_ms,omitempty"`

	rttSum   float64
	rttCount int
}

func (o *OperationStats) add(m Metric) {
	o.Count++
	if !m.Success {
		o.Failed++
		return
	}
	o.Success++
	if m.RTTMs > 0 {
		o.rttSum += m.RTTMs
		o.rttCount++
		o.AvgRTT = o.rttSum / float64(o.rttCount)
		o.MaxRTT = math.Max(o.MaxRTT, m.RTTMs)
	}
}

// Summarize aggregates metrics.
func Summarize(metrics []Metric) *Summary {
	s := &Summary{
		Failures:    make(map[string]int),
		ByOperation: make(map[OperationType]*OperationStats),
		ByStation:   make(map[string]*OperationStats),
		ByFunction:  make(map[string]*OperationStats),
	}
	var rtts []float64
	for _, m := range metrics {
		s.TotalOperations++
		s.TotalBytes += m.Bytes
		if m.Success {
			s.SuccessfulOps++
			if m.RTTMs > 0 {
				rtts = append(rtts, m.RTTMs)
			}
		} else {
			s.FailedOps++
			if m.Outcome != "" {
				s.Failures[m.Outcome]++
			}
		}
		statsFor(s.ByOperation, m.Operation).add(m)
		if m.Station != "" {
			statsFor(s.ByStation, m.Station).add(m)
		}
		if m.Function != "" {
			statsFor(s.ByFunction, m.Function).add(m)
		}
	}
	s.RTT = rttStats(rtts)
	return s
}

func statsFor[K comparable](m map[K]*OperationStats, key K) *OperationStats {
	st, ok := m[key]
	if !ok {
		st = &OperationStats{}
		m[key] = st
	}
	return st
}

func rttStats(rtts []float64) RTTStats {
	st := RTTStats{Samples: len(rtts), Buckets: make([]int, len(RTTBounds)+1)}
	if len(rtts) == 0 {
		return st
	}
	sort.Float64s(rtts)
	var sum float64
	for _, v := range rtts {
		sum += v
		st.Buckets[sort.Search(len(RTTBounds), func(i int) bool { return v < RTTBounds[i] })]++
	}
	st.Min = rtts[0]
	st.Max = rtts[len(rtts)-1]
	st.Avg = sum / float64(len(rtts))
	st.P50 = percentile(rtts, 0.50)
	st.P90 = percentile(rtts, 0.90)
	st.P99 = percentile(rtts, 0.99)
	return st
}

// percentile uses the nearest-rank method on sorted values.
func percentile(sorted []float64, p float64) float64 {
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[min(rank, len(sorted)-1)]
}
