package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wesleyorama2/barehttp/http"
	"github.com/wesleyorama2/barehttp/internal/metrics"
)

// Formatter is responsible for formatting HTTP requests and responses in text format
type Formatter struct {
	Verbose bool
	NoColor bool

	colors *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	colors := DefaultColorScheme()
	if noColor {
		colors = NoColorScheme()
	}
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		colors:  colors,
	}
}

// FormatRequest formats an HTTP request for display
func (f *Formatter) FormatRequest(req *http.Request) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("▶ REQUEST: %s %s\n",
		f.colors.Method.Sprint(req.Method),
		f.colors.URL.Sprint(req.URL.String())))

	// Verbose shows every line sent, otherwise only what the caller set.
	header := req.Header
	if f.Verbose {
		header = req.WireHeader()
	}
	if header.Len() > 0 {
		buf.WriteString("  Headers:\n")
		f.writeFields(&buf, header)
	}

	if req.HasBody() && len(req.Body) > 0 {
		buf.WriteString("  Body: ")
		buf.WriteString(formatJSONString(req.GetBodyAsString()))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatResponse formats an HTTP response for display. body is the decoded
// response content.
func (f *Formatter) FormatResponse(resp *http.Response, body string) string {
	var buf strings.Builder

	statusColor := f.colors.StatusError
	if resp.IsSuccess() {
		statusColor = f.colors.StatusOK
	} else if resp.IsRedirect() {
		statusColor = f.colors.StatusWarn
	}

	buf.WriteString(fmt.Sprintf("◀ RESPONSE: %s (%dms)\n",
		statusColor.Sprint(status(resp)),
		resp.GetResponseTimeMillis()))

	if f.Verbose {
		t := resp.Timing
		buf.WriteString("  Timing:\n")
		buf.WriteString(fmt.Sprintf("    DNS Lookup:      %dms\n", t.GetDNSLookupTimeMillis()))
		buf.WriteString(fmt.Sprintf("    TCP Connection:  %dms\n", t.GetTCPConnectTimeMillis()))
		buf.WriteString(fmt.Sprintf("    TLS Handshake:   %dms\n", t.GetTLSHandshakeTimeMillis()))
		buf.WriteString(fmt.Sprintf("    Time to First Byte: %dms\n", t.GetTimeToFirstByteMillis()))
		buf.WriteString(fmt.Sprintf("    Content Transfer:  %dms\n", t.GetContentTransferTimeMillis()))
		buf.WriteString(fmt.Sprintf("    Total:           %dms\n", t.GetTotalTimeMillis()))

		buf.WriteString("  Headers:\n")
		f.writeFields(&buf, resp.Header)
	}

	if body != "" {
		buf.WriteString("  Body:\n")
		buf.WriteString(formatJSONString(body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatSuite formats a summary of a suite run
func (f *Formatter) FormatSuite(result *SuiteResult) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("\n%s SUITE: %s\n", InfoIcon(f.NoColor), f.colors.Highlight.Sprint(result.Suite)))
	for _, step := range result.Steps {
		icon := SuccessIcon(f.NoColor)
		if !step.Passed {
			icon = ErrorIcon(f.NoColor)
		}
		line := fmt.Sprintf("  %s %s (%dms)", icon, step.Name, step.Duration)
		if step.Response != nil {
			line += " " + step.Response.Status
		}
		buf.WriteString(line + "\n")
		for _, e := range step.Errors {
			buf.WriteString(fmt.Sprintf("      %s\n", f.colors.Error.Sprint(e)))
		}
		if f.Verbose {
			for _, a := range step.Assertions {
				if a.Passed {
					buf.WriteString(fmt.Sprintf("      %s %s\n", SuccessIcon(f.NoColor), a.Message))
				}
			}
		}
	}

	summary := f.colors.Success
	if result.Failed > 0 {
		summary = f.colors.Error
	}
	buf.WriteString(summary.Sprintf("  %d passed, %d failed, %d total (%dms)\n",
		result.Passed, result.Failed, result.Total, result.Duration))

	return buf.String()
}

// FormatBench formats the latency summary of a bench run
func (f *Formatter) FormatBench(target string, s *metrics.Snapshot) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("▶ BENCH: %s\n", f.colors.URL.Sprint(target)))
	buf.WriteString(fmt.Sprintf("  Requests:  %d (%d failed, %.1f%% errors)\n",
		s.TotalRequests, s.FailedRequests, s.ErrorRate*100))
	buf.WriteString(fmt.Sprintf("  Throughput: %.2f req/s, %d bytes received\n", s.RPS, s.TotalBytes))
	buf.WriteString("  Latency:\n")
	writeLatency(&buf, "total", s.Latency)

	if f.Verbose {
		for _, phase := range []string{
			metrics.PhaseDNS, metrics.PhaseConnect, metrics.PhaseTLS,
			metrics.PhaseFirstByte, metrics.PhaseTransfer,
		} {
			if st, ok := s.Phases[phase]; ok {
				writeLatency(&buf, phase, st)
			}
		}
	}

	return buf.String()
}

func writeLatency(buf *strings.Builder, name string, s metrics.LatencyStats) {
	buf.WriteString(fmt.Sprintf("    %-10s min=%s mean=%s p50=%s p90=%s p95=%s p99=%s max=%s\n",
		name, round(s.Min), round(s.Mean), round(s.P50), round(s.P90), round(s.P95), round(s.P99), round(s.Max)))
}

func round(d time.Duration) time.Duration {
	return d.Round(10 * time.Microsecond)
}

func (f *Formatter) writeFields(buf *strings.Builder, header http.Header) {
	for _, field := range header.Fields() {
		buf.WriteString(fmt.Sprintf("    %s: %s\n",
			f.colors.HeaderKey.Sprint(field.Key),
			f.colors.HeaderValue.Sprint(field.Value)))
	}
}

// status renders the status line without the version, e.g. "200 OK".
func status(resp *http.Response) string {
	return fmt.Sprintf("%d %s", resp.StatusCode, resp.StatusText)
}

// formatJSONString attempts to pretty-print a JSON string
func formatJSONString(s string) string {
	var prettyJSON bytes.Buffer
	err := json.Indent(&prettyJSON, []byte(s), "  ", "  ")
	if err != nil {
		return s
	}
	return prettyJSON.String()
}
