package output

import (
	"strings"
	"testing"
	"time"

	"github.com/wesleyorama2/barehttp/http"
	"github.com/wesleyorama2/barehttp/internal/metrics"
)

func newTestRequest(t *testing.T, method, url string, body any, fields ...http.Field) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, http.NewHeader(fields...), body)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	return req
}

func newTestResponse(t *testing.T, raw string) *http.Response {
	t.Helper()
	resp, err := http.ParseResponse([]byte(raw))
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	return resp
}

func TestFormatter_FormatRequest(t *testing.T) {
	formatter := NewFormatter(false, true)

	req := newTestRequest(t, "GET", "https://api.example.com/users?page=1&limit=10", nil,
		http.Field{Key: "Accept", Value: "application/json"},
		http.Field{Key: "Authorization", Value: "Bearer token123"},
	)

	output := formatter.FormatRequest(req)

	expectedParts := []string{
		"REQUEST: GET https://api.example.com:443/users?page=1&limit=10",
		"Headers:",
		"Accept: application/json",
		"Authorization: Bearer token123",
	}
	for _, part := range expectedParts {
		if !strings.Contains(output, part) {
			t.Errorf("Expected output to contain '%s', got:\n%s", part, output)
		}
	}

	// Builder defaults only show in verbose mode.
	if strings.Contains(output, "Connection: close") {
		t.Errorf("Non-verbose output should not list wire headers, got:\n%s", output)
	}
}

func TestFormatter_FormatRequestVerboseShowsWireHeaders(t *testing.T) {
	formatter := NewFormatter(true, true)

	req := newTestRequest(t, "GET", "http://example.com/", nil)
	output := formatter.FormatRequest(req)

	for _, part := range []string{"Host: example.com", "Connection: close", "User-Agent: " + http.DefaultUserAgent, "Accept-Encoding: identity"} {
		if !strings.Contains(output, part) {
			t.Errorf("Expected output to contain '%s', got:\n%s", part, output)
		}
	}

	host := strings.Index(output, "Host:")
	conn := strings.Index(output, "Connection:")
	if host < 0 || conn < host {
		t.Errorf("Expected Host before Connection, got:\n%s", output)
	}
}

func TestFormatter_FormatRequestWithBody(t *testing.T) {
	formatter := NewFormatter(true, true)

	req := newTestRequest(t, "POST", "http://example.com/users", `{"name":"John Doe"}`,
		http.Field{Key: "Content-Type", Value: "application/json"},
	)

	output := formatter.FormatRequest(req)

	for _, part := range []string{"REQUEST: POST", "Content-Length: 19", "Body:", `"name": "John Doe"`} {
		if !strings.Contains(output, part) {
			t.Errorf("Expected output to contain '%s', got:\n%s", part, output)
		}
	}
}

func TestFormatter_FormatResponse(t *testing.T) {
	formatter := NewFormatter(true, true)

	resp := newTestResponse(t, "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nX-Request-ID: abc123\r\n\r\n{\"id\":1}")
	resp.Timing = http.TimingInfo{
		DNSLookupTime:   5 * time.Millisecond,
		TCPConnectTime:  10 * time.Millisecond,
		TimeToFirstByte: 20 * time.Millisecond,
		TotalTime:       42 * time.Millisecond,
	}

	output := formatter.FormatResponse(resp, resp.GetBodyAsString())

	expectedParts := []string{
		"RESPONSE: 200 OK (42ms)",
		"Timing:",
		"DNS Lookup:      5ms",
		"TCP Connection:  10ms",
		"Time to First Byte: 20ms",
		"Headers:",
		"Content-Type: application/json",
		"X-Request-ID: abc123",
		"Body:",
		`"id": 1`,
	}
	for _, part := range expectedParts {
		if !strings.Contains(output, part) {
			t.Errorf("Expected output to contain '%s', got:\n%s", part, output)
		}
	}
}

func TestFormatter_FormatResponseNonVerbose(t *testing.T) {
	formatter := NewFormatter(false, true)

	resp := newTestResponse(t, "HTTP/1.1 404 Not Found\r\nX-A: 1\r\n\r\nmissing")
	output := formatter.FormatResponse(resp, "missing")

	if !strings.Contains(output, "RESPONSE: 404 Not Found") {
		t.Errorf("Expected status line, got:\n%s", output)
	}
	if strings.Contains(output, "Timing:") || strings.Contains(output, "X-A") {
		t.Errorf("Non-verbose output should omit timing and headers, got:\n%s", output)
	}
	if !strings.Contains(output, "missing") {
		t.Errorf("Expected body, got:\n%s", output)
	}
}

func TestFormatter_FormatSuite(t *testing.T) {
	formatter := NewFormatter(false, true)

	result := &SuiteResult{Suite: "smoke"}
	result.AddStep(StepResult{Name: "login", Passed: true, Duration: 12, Response: &ResponseData{Status: "200 OK"}})
	result.AddStep(StepResult{Name: "profile", Passed: false, Duration: 3, Errors: []string{"schema: /id: expected integer"}})

	output := formatter.FormatSuite(result)

	expectedParts := []string{
		"SUITE: smoke",
		"✓ login (12ms) 200 OK",
		"✗ profile (3ms)",
		"schema: /id: expected integer",
		"1 passed, 1 failed, 2 total (15ms)",
	}
	for _, part := range expectedParts {
		if !strings.Contains(output, part) {
			t.Errorf("Expected output to contain '%s', got:\n%s", part, output)
		}
	}
}

func TestFormatter_FormatSuiteVerboseAssertions(t *testing.T) {
	result := &SuiteResult{Suite: "smoke"}
	result.AddStep(StepResult{
		Name:   "health",
		Passed: false,
		Errors: []string{"Status code is 500, expected 200"},
		Assertions: []AssertionResult{
			{Passed: true, Message: "Header Content-Type exists: true"},
			{Passed: false, Message: "Status code is 500, expected 200"},
		},
	})

	quiet := NewFormatter(false, true).FormatSuite(result)
	if strings.Contains(quiet, "Header Content-Type exists") {
		t.Errorf("Passed assertions should only be listed when verbose, got:\n%s", quiet)
	}

	verbose := NewFormatter(true, true).FormatSuite(result)
	if !strings.Contains(verbose, "✓ Header Content-Type exists: true") {
		t.Errorf("Expected passed assertion in verbose output, got:\n%s", verbose)
	}
	if strings.Count(verbose, "Status code is 500, expected 200") != 1 {
		t.Errorf("Failed assertion should be listed once, got:\n%s", verbose)
	}
}

func TestFormatter_FormatBench(t *testing.T) {
	engine := metrics.NewEngine()
	engine.RecordTiming(http.TimingInfo{DNSLookupTime: time.Millisecond, TotalTime: 10 * time.Millisecond}, true, 100)
	engine.RecordFailure()

	output := NewFormatter(true, true).FormatBench("http://example.com/", engine.GetSnapshot())

	for _, part := range []string{"BENCH: http://example.com/", "Requests:  2 (1 failed, 50.0% errors)", "total", "dns"} {
		if !strings.Contains(output, part) {
			t.Errorf("Expected output to contain '%s', got:\n%s", part, output)
		}
	}
	if strings.Contains(output, "tls") {
		t.Errorf("Plain HTTP bench should not list a TLS phase, got:\n%s", output)
	}
}

func TestFormatJSONString(t *testing.T) {
	if got := formatJSONString("not json"); got != "not json" {
		t.Errorf("formatJSONString() = %q, want input unchanged", got)
	}
	if got := formatJSONString(`{"a":1}`); got != "{\n    \"a\": 1\n  }" {
		t.Errorf("formatJSONString() = %q", got)
	}
}
