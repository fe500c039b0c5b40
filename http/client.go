package http

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// Client sends GET and POST requests over raw sockets, one connection per request.
//
// A Client remembers the last request it sent, so it is not safe for
// concurrent use. Use one Client per goroutine.
type Client struct {
	transport *Transport
	logger    *slog.Logger
	clock     clock.Clock
	userAgent string

	lastRequest *Request
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// NewClient creates a new client with the given options.
//
// Example:
//
//	client := http.NewClient(
//	    http.WithUserAgent("my-tool/1.0"),
//	    http.WithLogger(logger),
//	)
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:     clock.New(),
		userAgent: DefaultUserAgent,
	}
	client.transport = NewTransport(client.logger, client.clock)

	for _, option := range options {
		option(client)
	}

	return client
}

// WithLogger sets the structured logger used by the client and its transport.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
		c.transport.logger = logger
	}
}

// WithClock sets the clock used to time exchanges.
func WithClock(clk clock.Clock) ClientOption {
	return func(c *Client) {
		c.clock = clk
		c.transport.clock = clk
	}
}

// WithResolver replaces the system DNS resolver.
func WithResolver(r Resolver) ClientOption {
	return func(c *Client) {
		c.transport.Resolver = r
	}
}

// WithTLSConfig sets the TLS configuration for https requests. ServerName
// is always overwritten with the request host.
func WithTLSConfig(cfg *tls.Config) ClientOption {
	return func(c *Client) {
		c.transport.TLSConfig = cfg
	}
}

// WithUserAgent sets the default User-Agent. A User-Agent supplied with a
// request still takes precedence.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithChunkSize sets the socket read buffer size.
func WithChunkSize(n int) ClientOption {
	return func(c *Client) {
		c.transport.ChunkSize = n
	}
}

// Get sends a GET request to rawURL.
func (c *Client) Get(ctx context.Context, rawURL string, header Header) (*Response, error) {
	c.lastRequest = nil

	req, err := NewRequest(string(MethodGet), rawURL, header, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Post sends a POST request to rawURL. body may be nil, a string or a []byte.
func (c *Client) Post(ctx context.Context, rawURL string, header Header, body any) (*Response, error) {
	c.lastRequest = nil

	req, err := NewRequest(string(MethodPost), rawURL, header, body)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Do sends req and returns the parsed response. On success the request and
// response reference each other.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	req.userAgent = c.userAgent
	c.lastRequest = req

	payload, err := req.Bytes()
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending request",
		"method", string(req.Method),
		"url", req.URL.String(),
		"bytes", len(payload),
	)

	raw, timing, err := c.transport.Exchange(ctx, payload, req.URL.Host, req.URL.Port, req.URL.Scheme.Secure())
	if err != nil {
		if IsFatal(err) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL)
	}

	resp, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}
	resp.Timing = timing

	resp.request = req
	req.response = resp

	c.logger.Info("response received",
		"method", string(req.Method),
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"bytes", len(raw),
	)

	return resp, nil
}

// LastRequest returns the request most recently handed to the transport.
// It is cleared at the start of every Get or Post.
func (c *Client) LastRequest() *Request { return c.lastRequest }
