package http

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"strconv"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// DefaultChunkSize is the read buffer size used while draining a response.
const DefaultChunkSize = 4096

// Resolver resolves a hostname to an IPv4 address.
type Resolver interface {
	LookupIPv4(ctx context.Context, host string) (net.IP, error)
}

type netResolver struct {
	r *net.Resolver
}

// NewNetResolver returns a Resolver backed by r, or net.DefaultResolver when r is nil.
func NewNetResolver(r *net.Resolver) Resolver {
	if r == nil {
		r = net.DefaultResolver
	}
	return &netResolver{r: r}
}

func (n *netResolver) LookupIPv4(ctx context.Context, host string) (net.IP, error) {
	ips, err := n.r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, errors.New("no ipv4 address")
	}
	// Lets simply use the first address.
	return ips[0], nil
}

// Transport performs one request/response exchange per call over a fresh
// TCP or TLS connection. It has no timeouts: a peer that never closes the
// connection blocks Exchange forever.
type Transport struct {
	Resolver Resolver
	// TLSConfig is cloned for every secure exchange; nil means the system roots.
	TLSConfig *tls.Config
	ChunkSize int

	logger *slog.Logger
	clock  clock.Clock
}

// NewTransport returns a Transport using the system resolver and trust store.
func NewTransport(logger *slog.Logger, clk clock.Clock) *Transport {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Transport{
		Resolver:  NewNetResolver(nil),
		ChunkSize: DefaultChunkSize,
		logger:    logger,
		clock:     clk,
	}
}

// Exchange resolves host, connects to it, writes payload and reads until the
// peer closes the connection. The connection is closed before Exchange
// returns on every path.
//
// ctx bounds resolution, dialing and the TLS handshake only.
func (t *Transport) Exchange(ctx context.Context, payload []byte, host string, port int, secure bool) (_ []byte, timing TimingInfo, err error) {
	timing.StartTime = t.clock.Now()
	mark := timing.StartTime
	lap := func() { mark = t.clock.Now() }

	ip, err := t.Resolver.LookupIPv4(ctx, host)
	if err != nil {
		// A lookup cut short by the caller says nothing about the host.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, timing, errors.Wrapf(ctxErr, "resolving %s", host)
		}
		return nil, timing, &HostResolutionError{Host: host, Err: err}
	}
	timing.DNSLookupTime = t.clock.Since(mark)
	lap()
	t.logger.Debug("resolved host", "host", host, "ip", ip.String())

	addr := net.JoinHostPort(ip.String(), strconv.Itoa(port))
	var d net.Dialer
	raw, err := d.DialContext(ctx, "tcp4", addr)
	if err != nil {
		return nil, timing, errors.Wrapf(err, "dialing %s", addr)
	}
	timing.TCPConnectTime = t.clock.Since(mark)
	lap()

	conn := raw
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			t.logger.Debug("closing connection", "addr", addr, "error", cerr)
		}
	}()
	t.logger.Debug("connected", "addr", addr, "secure", secure)

	if secure {
		tlsConn := tls.Client(raw, t.tlsConfig(host))
		conn = tlsConn
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return nil, timing, errors.Wrapf(err, "tls handshake with %s", host)
		}
		timing.TLSHandshakeTime = t.clock.Since(mark)
		lap()
	}

	if err := writeAll(conn, payload); err != nil {
		return nil, timing, errors.Wrap(err, "writing request")
	}

	resp, err := t.readAll(conn, func() {
		timing.TimeToFirstByte = t.clock.Since(mark)
		lap()
	})
	if err != nil {
		return nil, timing, errors.Wrap(err, "reading response")
	}
	timing.ContentTransferTime = t.clock.Since(mark)
	timing.TotalTime = t.clock.Since(timing.StartTime)

	t.logger.Debug("exchange complete",
		"addr", addr,
		"sent", len(payload),
		"received", len(resp),
		"total", timing.TotalTime,
	)

	return resp, timing, nil
}

func (t *Transport) tlsConfig(host string) *tls.Config {
	var cfg *tls.Config
	if t.TLSConfig != nil {
		cfg = t.TLSConfig.Clone()
	} else {
		cfg = &tls.Config{}
	}
	cfg.ServerName = host
	return cfg
}

// writeAll loops until every byte of p is written.
func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// readAll reads fixed size chunks until EOF. firstByte runs once, after the
// first non-empty read.
func (t *Transport) readAll(r io.Reader, firstByte func()) ([]byte, error) {
	size := t.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	var out []byte
	chunk := make([]byte, size)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if out == nil {
				firstByte()
			}
			out = append(out, chunk[:n]...)
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
