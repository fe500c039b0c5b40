package http

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var errHostNotFound = errors.New("host not found")

// staticResolver resolves from a fixed table and optionally advances a mock clock.
type staticResolver struct {
	hosts   map[string]string
	clock   *clock.Mock
	advance time.Duration
}

func (s *staticResolver) LookupIPv4(_ context.Context, host string) (net.IP, error) {
	if s.clock != nil {
		s.clock.Add(s.advance)
	}
	ip, ok := s.hosts[host]
	if !ok {
		return nil, errHostNotFound
	}
	return net.ParseIP(ip).To4(), nil
}

func localResolver(hosts ...string) *staticResolver {
	r := &staticResolver{hosts: map[string]string{}}
	for _, h := range hosts {
		r.hosts[h] = "127.0.0.1"
	}
	return r
}

// rawServer accepts connections on a loopback port, captures each request
// and answers with a canned byte sequence written in chunks.
type rawServer struct {
	ln       net.Listener
	response []byte
	// chunk splits the response into writes of this size; 0 writes it at once.
	chunk int

	mu       sync.Mutex
	requests [][]byte
	wg       sync.WaitGroup
}

func newRawServer(t *testing.T, response []byte) *rawServer {
	t.Helper()

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)

	s := &rawServer{ln: ln, response: response}
	s.wg.Add(1)
	go s.serve()

	return s
}

func (s *rawServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *rawServer) url(path string) string {
	return "http://localhost:" + strconv.Itoa(s.port()) + path
}

func (s *rawServer) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.handle(conn)
	}
}

func (s *rawServer) handle(conn net.Conn) {
	defer conn.Close()

	req, err := readRequest(conn)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	resp := s.response
	size := s.chunk
	if size <= 0 {
		size = len(resp)
	}
	for len(resp) > 0 {
		n := min(size, len(resp))
		if _, err := conn.Write(resp[:n]); err != nil {
			return
		}
		resp = resp[n:]
	}
}

func (s *rawServer) close() {
	s.ln.Close()
	s.wg.Wait()
}

func (s *rawServer) lastRequest() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// readRequest reads the header block and a Content-Length body.
func readRequest(r io.Reader) ([]byte, error) {
	var buf []byte
	chunk := make([]byte, 512)
	for !bytes.Contains(buf, headerSeparator) {
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			return nil, err
		}
	}

	head, body, _ := bytes.Cut(buf, headerSeparator)
	length := 0
	for _, line := range strings.Split(string(head), "\r\n") {
		k, v, ok := strings.Cut(line, ": ")
		if ok && strings.EqualFold(k, "Content-Length") {
			length, _ = strconv.Atoi(v)
		}
	}

	for len(body) < length {
		n, err := r.Read(chunk)
		body = append(body, chunk[:n]...)
		if err != nil {
			return nil, err
		}
	}

	out := make([]byte, 0, len(head)+len(headerSeparator)+len(body))
	out = append(out, head...)
	out = append(out, headerSeparator...)
	return append(out, body...), nil
}
