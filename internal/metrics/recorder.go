// Package metrics aggregates the latency of remote operations with HDR histograms.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// RecorderConfig contains configuration for a Recorder.
type RecorderConfig struct {
	// HistogramMin is the minimum recordable value in microseconds (default: 1)
	HistogramMin int64

	// HistogramMax is the maximum recordable value in microseconds (default: 3600000000 = 1 hour)
	HistogramMax int64

	// HistogramSigFigs is the number of significant figures (default: 3)
	HistogramSigFigs int
}

// DefaultRecorderConfig returns the default configuration.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		HistogramMin:     1,
		HistogramMax:     3600000000, // 1 hour in microseconds
		HistogramSigFigs: 3,
	}
}

// Recorder keeps one histogram per operation kind (execute, put, get).
//
// Recorder is safe for concurrent use; histograms are not, so every access holds mu.
type Recorder struct {
	config RecorderConfig

	mu       sync.Mutex
	hists    map[string]*hdrhistogram.Histogram
	failures map[string]int64
	hosts    map[string]int64
}

// NewRecorder creates a recorder with default configuration.
func NewRecorder() *Recorder {
	return NewRecorderWithConfig(DefaultRecorderConfig())
}

// NewRecorderWithConfig creates a recorder with custom configuration.
func NewRecorderWithConfig(config RecorderConfig) *Recorder {
	return &Recorder{
		config:   config,
		hists:    make(map[string]*hdrhistogram.Histogram),
		failures: make(map[string]int64),
		hosts:    make(map[string]int64),
	}
}

// Observe records one operation. It satisfies remote.Observer.
func (r *Recorder) Observe(op, host string, d time.Duration, err error) {
	micros := d.Microseconds()
	if micros < r.config.HistogramMin {
		micros = r.config.HistogramMin
	}
	if micros > r.config.HistogramMax {
		micros = r.config.HistogramMax
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	hist, ok := r.hists[op]
	if !ok {
		hist = hdrhistogram.New(r.config.HistogramMin, r.config.HistogramMax, r.config.HistogramSigFigs)
		r.hists[op] = hist
	}
	_ = hist.RecordValue(micros)
	r.hosts[host]++
	if err != nil {
		r.failures[op]++
	}
}

// LatencyStats contains latency statistics for one operation kind.
type LatencyStats struct {
	Operation string        `json:"operation"`
	Count     int64         `json:"count"`
	Failures  int64         `json:"failures"`
	Min       time.Duration `json:"min"`
	Max       time.Duration `json:"max"`
	Mean      time.Duration `json:"mean"`
	P50       time.Duration `json:"p50"`
	P95       time.Duration `json:"p95"`
	P99       time.Duration `json:"p99"`
}

// Snapshot contains a point-in-time view of all recorded operations.
type Snapshot struct {
	Operations []LatencyStats   `json:"operations"`
	Hosts      map[string]int64 `json:"hosts"`
}

// Total returns the number of recorded operations.
func (s *Snapshot) Total() int64 {
	var n int64
	for _, op := range s.Operations {
		n += op.Count
	}
	return n
}

// Snapshot returns statistics sorted by operation name.
func (r *Recorder) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := &Snapshot{Hosts: make(map[string]int64, len(r.hosts))}
	for op, hist := range r.hists {
		snap.Operations = append(snap.Operations, LatencyStats{
			Operation: op,
			Count:     hist.TotalCount(),
			Failures:  r.failures[op],
			Min:       time.Duration(hist.Min()) * time.Microsecond,
			Max:       time.Duration(hist.Max()) * time.Microsecond,
			Mean:      time.Duration(hist.Mean()) * time.Microsecond,
			P50:       time.Duration(hist.ValueAtQuantile(50)) * time.Microsecond,
			P95:       time.Duration(hist.ValueAtQuantile(95)) * time.Microsecond,
			P99:       time.Duration(hist.ValueAtQuantile(99)) * time.Microsecond,
		})
	}
	for host, n := range r.hosts {
		snap.Hosts[host] = n
	}
	sort.Slice(snap.Operations, func(i, j int) bool {
		return snap.Operations[i].Operation < snap.Operations[j].Operation
	})
	return snap
}

// Reset clears every histogram.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hists = make(map[string]*hdrhistogram.Histogram)
	r.failures = make(map[string]int64)
	r.hosts = make(map[string]int64)
}
