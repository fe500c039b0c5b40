package output

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/barehttp/http"
	"github.com/wesleyorama2/barehttp/internal/metrics"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat checks that s names a known format.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// FormatProvider is an interface for different output formatters
type FormatProvider interface {
	FormatRequest(req *http.Request) string
	FormatResponse(resp *http.Response, body string) string
	FormatSuite(result *SuiteResult) string
	FormatBench(target string, snapshot *metrics.Snapshot) string
}

// FieldData is one header line.
type FieldData struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// RequestData represents the structured data of an HTTP request
type RequestData struct {
	Method    string      `json:"method" yaml:"method"`
	URL       string      `json:"url" yaml:"url"`
	Headers   []FieldData `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body      string      `json:"body,omitempty" yaml:"body,omitempty"`
	Timestamp string      `json:"timestamp" yaml:"timestamp"`
}

// TimingData represents detailed timing information for an HTTP request
type TimingData struct {
	DNSLookup       int64 `json:"dnsLookupMs" yaml:"dnsLookupMs"`
	TCPConnection   int64 `json:"tcpConnectionMs" yaml:"tcpConnectionMs"`
	TLSHandshake    int64 `json:"tlsHandshakeMs,omitempty" yaml:"tlsHandshakeMs,omitempty"`
	TimeToFirstByte int64 `json:"timeToFirstByteMs" yaml:"timeToFirstByteMs"`
	ContentTransfer int64 `json:"contentTransferMs" yaml:"contentTransferMs"`
	Total           int64 `json:"totalMs" yaml:"totalMs"`
}

// ResponseData represents the structured data of an HTTP response
type ResponseData struct {
	Version       string      `json:"version" yaml:"version"`
	StatusCode    int         `json:"statusCode" yaml:"statusCode"`
	Status        string      `json:"status" yaml:"status"`
	Headers       []FieldData `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body          interface{} `json:"body,omitempty" yaml:"body,omitempty"`
	ResponseTime  int64       `json:"responseTimeMs" yaml:"responseTimeMs"`
	Timing        TimingData  `json:"timing" yaml:"timing"`
	Timestamp     string      `json:"timestamp" yaml:"timestamp"`
	ContentLength int64       `json:"contentLength,omitempty" yaml:"contentLength,omitempty"`
}

// StepResult is the outcome of one request of a suite.
type StepResult struct {
	Name      string            `json:"name" yaml:"name"`
	Passed    bool              `json:"passed" yaml:"passed"`
	Duration  int64             `json:"durationMs" yaml:"durationMs"`
	Extracted map[string]string `json:"extracted,omitempty" yaml:"extracted,omitempty"`
	Errors    []string          `json:"errors,omitempty" yaml:"errors,omitempty"`
	// Assertions holds every declared assertion, passed or not.
	Assertions []AssertionResult `json:"assertions,omitempty" yaml:"assertions,omitempty"`
	Request    *RequestData      `json:"request,omitempty" yaml:"request,omitempty"`
	Response   *ResponseData     `json:"response,omitempty" yaml:"response,omitempty"`
}

// AssertionResult is the outcome of one response assertion
type AssertionResult struct {
	Passed  bool   `json:"passed" yaml:"passed"`
	Message string `json:"message" yaml:"message"`
}

// SuiteResult represents the result of a suite run
type SuiteResult struct {
	Suite     string       `json:"suite" yaml:"suite"`
	Total     int          `json:"total" yaml:"total"`
	Passed    int          `json:"passed" yaml:"passed"`
	Failed    int          `json:"failed" yaml:"failed"`
	Duration  int64        `json:"durationMs" yaml:"durationMs"`
	Steps     []StepResult `json:"steps" yaml:"steps"`
	Timestamp string       `json:"timestamp" yaml:"timestamp"`
}

// AddStep appends step and updates the counters.
func (r *SuiteResult) AddStep(step StepResult) {
	r.Steps = append(r.Steps, step)
	r.Total++
	if step.Passed {
		r.Passed++
	} else {
		r.Failed++
	}
	r.Duration += step.Duration
}

// BenchData represents a bench run in structured output.
type BenchData struct {
	Target         string                 `json:"target" yaml:"target"`
	TotalRequests  int64                  `json:"totalRequests" yaml:"totalRequests"`
	FailedRequests int64                  `json:"failedRequests" yaml:"failedRequests"`
	TotalBytes     int64                  `json:"totalBytes" yaml:"totalBytes"`
	RPS            float64                `json:"rps" yaml:"rps"`
	ErrorRate      float64                `json:"errorRate" yaml:"errorRate"`
	Latency        LatencyData            `json:"latency" yaml:"latency"`
	Phases         map[string]LatencyData `json:"phases,omitempty" yaml:"phases,omitempty"`
	Timestamp      string                 `json:"timestamp" yaml:"timestamp"`
}

// LatencyData holds latency statistics in milliseconds.
type LatencyData struct {
	Count int64   `json:"count" yaml:"count"`
	Min   float64 `json:"minMs" yaml:"minMs"`
	Mean  float64 `json:"meanMs" yaml:"meanMs"`
	P50   float64 `json:"p50Ms" yaml:"p50Ms"`
	P90   float64 `json:"p90Ms" yaml:"p90Ms"`
	P95   float64 `json:"p95Ms" yaml:"p95Ms"`
	P99   float64 `json:"p99Ms" yaml:"p99Ms"`
	Max   float64 `json:"maxMs" yaml:"maxMs"`
}

// NewRequestData converts req for structured output. With verbose set the
// headers are the full set written on the wire.
func NewRequestData(req *http.Request, verbose bool) *RequestData {
	header := req.Header
	if verbose {
		header = req.WireHeader()
	}
	return &RequestData{
		Method:    string(req.Method),
		URL:       req.URL.String(),
		Headers:   fieldData(header),
		Body:      req.GetBodyAsString(),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// NewResponseData converts resp for structured output. A body that parses
// as JSON is embedded as a value, anything else as a string.
func NewResponseData(resp *http.Response, body string) *ResponseData {
	var parsed interface{}
	if body != "" {
		if err := json.Unmarshal([]byte(body), &parsed); err != nil {
			parsed = body
		}
	}

	t := resp.Timing
	data := &ResponseData{
		Version:      resp.Version,
		StatusCode:   resp.StatusCode,
		Status:       status(resp),
		Headers:      fieldData(resp.Header),
		Body:         parsed,
		ResponseTime: resp.GetResponseTimeMillis(),
		Timing: TimingData{
			DNSLookup:       t.GetDNSLookupTimeMillis(),
			TCPConnection:   t.GetTCPConnectTimeMillis(),
			TLSHandshake:    t.GetTLSHandshakeTimeMillis(),
			TimeToFirstByte: t.GetTimeToFirstByteMillis(),
			ContentTransfer: t.GetContentTransferTimeMillis(),
			Total:           t.GetTotalTimeMillis(),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if contentLength := resp.GetHeader("Content-Length"); contentLength != "" {
		if n, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
			data.ContentLength = n
		}
	}

	return data
}

// NewBenchData converts a metrics snapshot for structured output.
func NewBenchData(target string, s *metrics.Snapshot) *BenchData {
	data := &BenchData{
		Target:         target,
		TotalRequests:  s.TotalRequests,
		FailedRequests: s.FailedRequests,
		TotalBytes:     s.TotalBytes,
		RPS:            s.RPS,
		ErrorRate:      s.ErrorRate,
		Latency:        latencyData(s.Latency),
		Timestamp:      s.Timestamp.Format(time.RFC3339),
	}
	if len(s.Phases) > 0 {
		data.Phases = make(map[string]LatencyData, len(s.Phases))
		for name, st := range s.Phases {
			data.Phases[name] = latencyData(st)
		}
	}
	return data
}

func latencyData(s metrics.LatencyStats) LatencyData {
	return LatencyData{
		Count: s.Count,
		Min:   millis(s.Min),
		Mean:  millis(s.Mean),
		P50:   millis(s.P50),
		P90:   millis(s.P90),
		P95:   millis(s.P95),
		P99:   millis(s.P99),
		Max:   millis(s.Max),
	}
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func fieldData(h http.Header) []FieldData {
	fields := h.Fields()
	if len(fields) == 0 {
		return nil
	}
	out := make([]FieldData, len(fields))
	for i, f := range fields {
		out[i] = FieldData{Name: f.Key, Value: f.Value}
	}
	return out
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Verbose bool
	Pretty  bool
}

func (f *JSONFormatter) marshal(kind string, v interface{}) string {
	var output []byte
	var err error
	if f.Pretty {
		output, err = json.MarshalIndent(v, "", "  ")
	} else {
		output, err = json.Marshal(v)
	}

	if err != nil {
		return fmt.Sprintf(`{"error":"Failed to marshal %s: %s"}`, kind, err)
	}

	return string(output) + "\n"
}

// FormatRequest formats a request as JSON
func (f *JSONFormatter) FormatRequest(req *http.Request) string {
	return f.marshal("request", NewRequestData(req, f.Verbose))
}

// FormatResponse formats a response as JSON
func (f *JSONFormatter) FormatResponse(resp *http.Response, body string) string {
	return f.marshal("response", NewResponseData(resp, body))
}

// FormatSuite formats suite results as JSON
func (f *JSONFormatter) FormatSuite(result *SuiteResult) string {
	return f.marshal("suite results", result)
}

// FormatBench formats bench results as JSON
func (f *JSONFormatter) FormatBench(target string, snapshot *metrics.Snapshot) string {
	return f.marshal("bench results", NewBenchData(target, snapshot))
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	Verbose bool
}

func (f *YAMLFormatter) marshal(kind string, v interface{}) string {
	output, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: Failed to marshal %s: %s\n", kind, err)
	}
	return string(output)
}

// FormatRequest formats a request as YAML
func (f *YAMLFormatter) FormatRequest(req *http.Request) string {
	return f.marshal("request", NewRequestData(req, f.Verbose))
}

// FormatResponse formats a response as YAML
func (f *YAMLFormatter) FormatResponse(resp *http.Response, body string) string {
	return f.marshal("response", NewResponseData(resp, body))
}

// FormatSuite formats suite results as YAML
func (f *YAMLFormatter) FormatSuite(result *SuiteResult) string {
	return f.marshal("suite results", result)
}

// FormatBench formats bench results as YAML
func (f *YAMLFormatter) FormatBench(target string, snapshot *metrics.Snapshot) string {
	return f.marshal("bench results", NewBenchData(target, snapshot))
}

// GetFormatter returns the appropriate formatter for the given format
func GetFormatter(format OutputFormat, verbose bool, noColor bool) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Verbose: verbose, Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{Verbose: verbose}
	default:
		return NewFormatter(verbose, noColor)
	}
}
