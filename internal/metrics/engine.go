package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/benbjohnson/clock"

	"github.com/wesleyorama2/barehttp/http"
)

// Phase names used by RecordTiming for the per-phase breakdown.
const (
	PhaseDNS       = "dns"
	PhaseConnect   = "connect"
	PhaseTLS       = "tls"
	PhaseFirstByte = "first-byte"
	PhaseTransfer  = "transfer"
)

// Engine aggregates exchange latencies using HDR histograms.
//
// # Thread Safety
//
// Engine is safe for concurrent use. Counters use atomic operations and
// histograms are guarded by mutexes.
type Engine struct {
	// Range: 1 microsecond to 1 hour, 3 significant figures
	latencyHist   *hdrhistogram.Histogram
	latencyHistMu sync.Mutex

	// Per-name histograms, keyed by request name or exchange phase
	namedHists   map[string]*hdrhistogram.Histogram
	namedHistsMu sync.RWMutex

	totalRequests   atomic.Int64
	successRequests atomic.Int64
	failedRequests  atomic.Int64
	totalBytes      atomic.Int64

	clock     clock.Clock
	startTime time.Time

	config EngineConfig
}

// EngineConfig contains configuration for the metrics engine.
type EngineConfig struct {
	// HistogramMin is the minimum recordable value in microseconds (default: 1)
	HistogramMin int64

	// HistogramMax is the maximum recordable value in microseconds (default: 3600000000 = 1 hour)
	HistogramMax int64

	// HistogramSigFigs is the number of significant figures (default: 3)
	HistogramSigFigs int
}

// DefaultEngineConfig returns the default configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		HistogramMin:     1,
		HistogramMax:     3600000000, // 1 hour in microseconds
		HistogramSigFigs: 3,
	}
}

// NewEngine creates a new metrics engine with default configuration.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig(), nil)
}

// NewEngineWithConfig creates a metrics engine. A nil clk uses the wall clock.
func NewEngineWithConfig(config EngineConfig, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	return &Engine{
		latencyHist: hdrhistogram.New(config.HistogramMin, config.HistogramMax, config.HistogramSigFigs),
		namedHists:  make(map[string]*hdrhistogram.Histogram),
		clock:       clk,
		startTime:   clk.Now(),
		config:      config,
	}
}

// RecordLatency records one exchange.
//
// Parameters:
//   - duration: The exchange latency
//   - name: Optional name for a per-name breakdown (empty string to skip)
//   - success: Whether the exchange succeeded
//   - bytes: Number of bytes received
func (e *Engine) RecordLatency(duration time.Duration, name string, success bool, bytes int64) {
	latencyMicros := e.clamp(duration)

	e.latencyHistMu.Lock()
	e.latencyHist.RecordValue(latencyMicros)
	e.latencyHistMu.Unlock()

	if name != "" {
		e.recordNamed(name, latencyMicros)
	}

	e.totalRequests.Add(1)
	e.totalBytes.Add(bytes)

	if success {
		e.successRequests.Add(1)
	} else {
		e.failedRequests.Add(1)
	}
}

// RecordTiming records a completed exchange and its per-phase breakdown.
// The TLS phase is only recorded for exchanges that performed a handshake.
func (e *Engine) RecordTiming(t http.TimingInfo, success bool, bytes int64) {
	e.RecordLatency(t.TotalTime, "", success, bytes)

	e.recordNamed(PhaseDNS, e.clamp(t.DNSLookupTime))
	e.recordNamed(PhaseConnect, e.clamp(t.TCPConnectTime))
	if t.TLSHandshakeTime > 0 {
		e.recordNamed(PhaseTLS, e.clamp(t.TLSHandshakeTime))
	}
	e.recordNamed(PhaseFirstByte, e.clamp(t.TimeToFirstByte))
	e.recordNamed(PhaseTransfer, e.clamp(t.ContentTransferTime))
}

// RecordFailure counts an exchange that produced no timing, such as a
// refused connection.
func (e *Engine) RecordFailure() {
	e.totalRequests.Add(1)
	e.failedRequests.Add(1)
}

func (e *Engine) clamp(d time.Duration) int64 {
	v := d.Microseconds()
	if v < e.config.HistogramMin {
		v = e.config.HistogramMin
	}
	if v > e.config.HistogramMax {
		v = e.config.HistogramMax
	}
	return v
}

// recordNamed records a latency in a per-name histogram.
// NOTE: HDR histogram RecordValue is NOT thread-safe, so we must hold a lock.
func (e *Engine) recordNamed(name string, latencyMicros int64) {
	e.namedHistsMu.Lock()
	defer e.namedHistsMu.Unlock()

	hist, exists := e.namedHists[name]
	if !exists {
		hist = hdrhistogram.New(e.config.HistogramMin, e.config.HistogramMax, e.config.HistogramSigFigs)
		e.namedHists[name] = hist
	}

	hist.RecordValue(latencyMicros)
}

// GetSnapshot returns a point-in-time snapshot of all metrics.
func (e *Engine) GetSnapshot() *Snapshot {
	e.latencyHistMu.Lock()
	latencyStats := statsOf(e.latencyHist)
	e.latencyHistMu.Unlock()

	now := e.clock.Now()
	elapsed := now.Sub(e.startTime)
	totalReqs := e.totalRequests.Load()
	failedReqs := e.failedRequests.Load()

	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(totalReqs) / elapsed.Seconds()
	}

	errorRate := 0.0
	if totalReqs > 0 {
		errorRate = float64(failedReqs) / float64(totalReqs)
	}

	return &Snapshot{
		TotalRequests:   totalReqs,
		SuccessRequests: e.successRequests.Load(),
		FailedRequests:  failedReqs,
		TotalBytes:      e.totalBytes.Load(),
		Latency:         latencyStats,
		Phases:          e.GetNamedStats(),
		RPS:             rps,
		ErrorRate:       errorRate,
		Elapsed:         elapsed,
		StartTime:       e.startTime,
		Timestamp:       now,
	}
}

// GetNamedStats returns per-name statistics.
func (e *Engine) GetNamedStats() map[string]LatencyStats {
	e.namedHistsMu.RLock()
	defer e.namedHistsMu.RUnlock()

	result := make(map[string]LatencyStats, len(e.namedHists))
	for name, hist := range e.namedHists {
		result[name] = statsOf(hist)
	}
	return result
}

// Reset resets all metrics to initial state.
func (e *Engine) Reset() {
	e.latencyHistMu.Lock()
	e.latencyHist.Reset()
	e.latencyHistMu.Unlock()

	e.namedHistsMu.Lock()
	e.namedHists = make(map[string]*hdrhistogram.Histogram)
	e.namedHistsMu.Unlock()

	e.totalRequests.Store(0)
	e.successRequests.Store(0)
	e.failedRequests.Store(0)
	e.totalBytes.Store(0)

	e.startTime = e.clock.Now()
}

func statsOf(h *hdrhistogram.Histogram) LatencyStats {
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return LatencyStats{
		Min:    us(h.Min()),
		Max:    us(h.Max()),
		Mean:   us(int64(h.Mean())),
		StdDev: us(int64(h.StdDev())),
		P50:    us(h.ValueAtQuantile(50)),
		P90:    us(h.ValueAtQuantile(90)),
		P95:    us(h.ValueAtQuantile(95)),
		P99:    us(h.ValueAtQuantile(99)),
		Count:  h.TotalCount(),
	}
}

// Snapshot contains a point-in-time view of all metrics.
type Snapshot struct {
	TotalRequests   int64                   `json:"totalRequests" yaml:"totalRequests"`
	SuccessRequests int64                   `json:"successRequests" yaml:"successRequests"`
	FailedRequests  int64                   `json:"failedRequests" yaml:"failedRequests"`
	TotalBytes      int64                   `json:"totalBytes" yaml:"totalBytes"`
	Latency         LatencyStats            `json:"latency" yaml:"latency"`
	Phases          map[string]LatencyStats `json:"phases,omitempty" yaml:"phases,omitempty"`
	RPS             float64                 `json:"rps" yaml:"rps"`
	ErrorRate       float64                 `json:"errorRate" yaml:"errorRate"`
	Elapsed         time.Duration           `json:"elapsed" yaml:"elapsed"`
	StartTime       time.Time               `json:"startTime" yaml:"startTime"`
	Timestamp       time.Time               `json:"timestamp" yaml:"timestamp"`
}

// LatencyStats contains latency statistics.
type LatencyStats struct {
	Min    time.Duration `json:"min" yaml:"min"`
	Max    time.Duration `json:"max" yaml:"max"`
	Mean   time.Duration `json:"mean" yaml:"mean"`
	StdDev time.Duration `json:"stdDev" yaml:"stdDev"`
	P50    time.Duration `json:"p50" yaml:"p50"`
	P90    time.Duration `json:"p90" yaml:"p90"`
	P95    time.Duration `json:"p95" yaml:"p95"`
	P99    time.Duration `json:"p99" yaml:"p99"`
	Count  int64         `json:"count" yaml:"count"`
}
