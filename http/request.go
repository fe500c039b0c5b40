package http

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Method is an HTTP request method. Only GET and POST are supported.
type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

// DefaultUserAgent is sent when neither the caller nor the client overrides User-Agent.
const DefaultUserAgent = "barehttp/0.1.0"

const (
	crlf    = "\r\n"
	version = "HTTP/1.1"
)

// defaultHeaders is the template for headers emitted only when the caller
// has not supplied the key. It is copied, never mutated.
var defaultHeaders = []Field{
	{Key: "User-Agent", Value: DefaultUserAgent},
	{Key: "Accept", Value: "*/*"},
	{Key: "Accept-Encoding", Value: "identity"},
}

// mandatory headers are always written by the builder.
var mandatoryKeys = map[string]bool{
	"Host":       true,
	"Connection": true,
}

// ParseMethod uppercases method and checks it is supported.
func ParseMethod(method string) (Method, error) {
	m := Method(strings.ToUpper(method))
	if m != MethodGet && m != MethodPost {
		return "", errors.Wrapf(ErrUnsupportedMethod, "method %q", method)
	}
	return m, nil
}

// encodeBody turns a caller body into bytes. A nil body reports ok=false.
func encodeBody(body any) (b []byte, ok bool, err error) {
	switch v := body.(type) {
	case nil:
		return nil, false, nil
	case string:
		return []byte(v), true, nil
	case []byte:
		if v == nil {
			return nil, false, nil
		}
		return v, true, nil
	default:
		return nil, false, errors.Wrapf(ErrInvalidBodyType, "got %T", body)
	}
}

// BuildRequest serializes an HTTP/1.1 request message.
//
// The order is fixed: request line, Host, Connection: close, the defaults
// User-Agent, Accept and Accept-Encoding unless present in header, the
// remaining caller fields in order, a blank line and the body.
func BuildRequest(method, host, target string, header Header, body any) ([]byte, error) {
	return buildRequest(method, host, target, header, body, DefaultUserAgent)
}

func buildRequest(method, host, target string, header Header, body any, userAgent string) ([]byte, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}

	if err := checkHeader(header); err != nil {
		return nil, err
	}

	payload, _, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.WriteString(string(m) + " " + target + " " + version + crlf)
	for _, f := range wireFields(host, header, userAgent) {
		buf.WriteString(f.Key + ": " + f.Value + crlf)
	}

	buf.WriteString(crlf)
	buf.Write(payload)

	return buf.Bytes(), nil
}

// checkHeader rejects fields that would break the request framing.
func checkHeader(header Header) error {
	for _, f := range header.fields {
		if f.Key == "" || strings.ContainsAny(f.Key, ":\r\n") {
			return errors.Wrapf(ErrInvalidHeader, "key %q", f.Key)
		}
		if strings.ContainsAny(f.Value, "\r\n") {
			return errors.Wrapf(ErrInvalidHeader, "value of %s", f.Key)
		}
	}
	return nil
}

// wireFields lists the header lines in the order they are written.
func wireFields(host string, header Header, userAgent string) []Field {
	fields := make([]Field, 0, len(defaultHeaders)+2+header.Len())
	fields = append(fields,
		Field{Key: "Host", Value: host},
		Field{Key: "Connection", Value: "close"},
	)

	for _, f := range defaultHeaders {
		if header.Has(f.Key) {
			continue
		}
		if f.Key == "User-Agent" && userAgent != "" {
			f.Value = userAgent
		}
		fields = append(fields, f)
	}

	for _, f := range header.fields {
		if mandatoryKeys[f.Key] {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// Request is a single GET or POST request, immutable once built.
type Request struct {
	Method Method
	URL    *URL
	// Header holds the caller fields plus Content-Length when one applies.
	// Host, Connection and the defaults are added at serialization.
	Header Header
	Body   []byte

	hasBody   bool
	userAgent string
	response  *Response
}

// NewRequest validates its arguments and prepares a request for rawURL.
//
// header is copied. Content-Length is set to the body length when a body is
// given and to 0 for a POST without body.
func NewRequest(method, rawURL string, header Header, body any) (*Request, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}

	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	if err := checkHeader(header); err != nil {
		return nil, err
	}

	payload, hasBody, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method:  m,
		URL:     u,
		Header:  header.Clone(),
		Body:    payload,
		hasBody: hasBody,
	}

	if hasBody || m == MethodPost {
		req.Header.Set("Content-Length", strconv.Itoa(len(payload)))
	}

	return req, nil
}

// HasBody reports whether the request carries a body, possibly empty.
func (r *Request) HasBody() bool { return r.hasBody }

// Bytes returns the exact bytes written to the socket.
func (r *Request) Bytes() ([]byte, error) {
	var body any
	if r.hasBody {
		body = r.Body
		if r.Body == nil {
			body = []byte{}
		}
	}
	return buildRequest(string(r.Method), r.URL.Authority(), r.URL.RequestTarget(), r.Header, body, r.userAgent)
}

// WireHeader returns every header field as it appears on the wire.
func (r *Request) WireHeader() Header {
	return NewHeader(wireFields(r.URL.Authority(), r.Header, r.userAgent)...)
}

// Response returns the response this request produced, nil before the exchange.
func (r *Request) Response() *Response { return r.response }

// String renders the wire bytes as text, replacing invalid UTF-8.
func (r *Request) String() string {
	b, err := r.Bytes()
	if err != nil {
		return ""
	}
	s, _ := decodeUTF8(b, Replace)
	return s
}

// GetBodyAsString returns the body as UTF-8 text with invalid bytes replaced
func (r *Request) GetBodyAsString() string {
	return text(r.Body)
}
