package http

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

var (
	headerSeparator = []byte("\r\n\r\n")
	fieldSeparator  = []byte(": ")
)

// Response is a fully received HTTP response.
type Response struct {
	Version    string
	StatusCode int
	StatusText string
	Header     Header
	// Content is the body, exactly as received.
	Content []byte
	// Raw is every byte read from the connection.
	Raw []byte
	// Timing is filled in by Client; it is zero for parsed fixtures.
	Timing TimingInfo

	request *Request
}

// ParseResponse parses a complete response buffer.
//
// The header block ends at the first CRLFCRLF. The status line must have a
// version, an integer code and a reason phrase (which may contain spaces).
// Header lines split at the first ": " and later duplicates overwrite earlier
// ones. The body is not dechunked or decompressed.
func ParseResponse(raw []byte) (*Response, error) {
	idx := bytes.Index(raw, headerSeparator)
	if idx < 0 {
		return nil, errors.Wrap(ErrMalformedResponse, "missing header terminator")
	}

	head := raw[:idx]
	lines := splitLines(head)

	statusLine := bytes.SplitN(lines[0], []byte{' '}, 3)
	if len(statusLine) < 3 {
		return nil, errors.Wrapf(ErrMalformedResponse, "status line %q", lines[0])
	}

	code, ok := parseStatusCode(statusLine[1])
	if !ok {
		return nil, errors.Wrapf(ErrMalformedResponse, "status code %q", statusLine[1])
	}

	resp := &Response{
		Version:    text(statusLine[0]),
		StatusCode: code,
		StatusText: text(statusLine[2]),
		Content:    raw[idx+len(headerSeparator):],
		Raw:        raw,
	}

	for _, line := range lines[1:] {
		if len(line) == 0 {
			continue
		}
		key, value, ok := bytes.Cut(line, fieldSeparator)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedResponse, "header line %q", line)
		}
		resp.Header.Set(text(key), text(value))
	}

	return resp, nil
}

// splitLines splits on LF and drops a trailing CR from each line.
func splitLines(b []byte) [][]byte {
	lines := bytes.Split(b, []byte{'\n'})
	for i, l := range lines {
		lines[i] = bytes.TrimSuffix(l, []byte{'\r'})
	}
	return lines
}

func text(b []byte) string {
	s, _ := decodeUTF8(b, Replace)
	return s
}

// Request returns the request that produced this response, if any.
func (r *Response) Request() *Request { return r.request }

// Text decodes the body using the named charset and error policy.
func (r *Response) Text(encoding string, policy ErrorPolicy) (string, error) {
	return decodeText(r.Content, encoding, policy)
}

// String renders the raw response as text, replacing invalid UTF-8.
func (r *Response) String() string {
	return text(r.Raw)
}

// GetHeader returns the value of the specified header
func (r *Response) GetHeader(key string) string {
	return r.Header.Get(key)
}

// GetBodyAsString returns the body as UTF-8 text with invalid bytes replaced
func (r *Response) GetBodyAsString() string {
	return text(r.Content)
}

// GetBodyAsJSON unmarshals the response body into the provided interface
func (r *Response) GetBodyAsJSON(v interface{}) error {
	return json.Unmarshal(r.Content, v)
}

// IsSuccess returns true if the response status code is in the 2xx range
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect returns true if the response status code is in the 3xx range
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsClientError returns true if the response status code is in the 4xx range
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError returns true if the response status code is in the 5xx range
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}

// parseStatusCode accepts exactly three ASCII digits.
func parseStatusCode(b []byte) (int, bool) {
	if len(b) != 3 {
		return 0, false
	}
	code := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		code = code*10 + int(c-'0')
	}
	return code, true
}

// GetResponseTimeMillis returns the total exchange time in milliseconds
func (r *Response) GetResponseTimeMillis() int64 {
	return r.Timing.TotalTime.Milliseconds()
}
