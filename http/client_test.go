package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler nethttp.HandlerFunc) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	// Point "localhost" at the listener through the static resolver.
	return srv, strings.Replace(srv.URL, "127.0.0.1", "localhost", 1)
}

func TestClient_Get(t *testing.T) {
	_, base := newTestServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("b"))
		assert.Equal(t, "test-value", r.Header.Get("X-Test-Header"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "identity", r.Header.Get("Accept-Encoding"))
		assert.True(t, r.Close)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(nethttp.StatusOK)
		w.Write([]byte(`{"message":"success"}`))
	})

	client := NewClient(WithResolver(localResolver("localhost")))

	resp, err := client.Get(context.Background(), base+"/test?b=1", NewHeader(Field{Key: "X-Test-Header", Value: "test-value"}))
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "OK", resp.StatusText)
	assert.Equal(t, "HTTP/1.1", resp.Version)
	assert.Equal(t, "application/json", resp.GetHeader("Content-Type"))
	assert.Equal(t, `{"message":"success"}`, resp.GetBodyAsString())

	assert.Same(t, resp, resp.Request().Response())
	assert.Same(t, client.LastRequest(), resp.Request())
}

func TestClient_Post(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		want   string
		length string
	}{
		{name: "string body", body: `{"name":"John"}`, want: `{"name":"John"}`, length: "15"},
		{name: "bytes body", body: []byte{1, 2, 3}, want: "\x01\x02\x03", length: "3"},
		{name: "no body", body: nil, want: "", length: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, base := newTestServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
				assert.Equal(t, "POST", r.Method)
				assert.Equal(t, tt.length, r.Header.Get("Content-Length"))
				got, _ := io.ReadAll(r.Body)
				assert.Equal(t, tt.want, string(got))
				w.WriteHeader(nethttp.StatusCreated)
			})

			client := NewClient(WithResolver(localResolver("localhost")))
			resp, err := client.Post(context.Background(), base+"/users", Header{}, tt.body)
			require.NoError(t, err)
			assert.Equal(t, 201, resp.StatusCode)
			assert.Equal(t, "Created", resp.StatusText)
		})
	}
}

func TestClient_WithUserAgent(t *testing.T) {
	seen := make(chan string, 2)
	_, base := newTestServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		seen <- r.Header.Get("User-Agent")
	})

	client := NewClient(
		WithResolver(localResolver("localhost")),
		WithUserAgent("barehttp-test"),
	)

	_, err := client.Get(context.Background(), base+"/", Header{})
	require.NoError(t, err)
	_, err = client.Get(context.Background(), base+"/", NewHeader(Field{Key: "User-Agent", Value: "override"}))
	require.NoError(t, err)

	assert.Equal(t, "barehttp-test", <-seen)
	assert.Equal(t, "override", <-seen)
}

func TestClient_ErrorsBeforeIO(t *testing.T) {
	resolver := localResolver()
	client := NewClient(WithResolver(resolver))

	_, err := client.Get(context.Background(), "ftp://example.com/", Header{})
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
	assert.Nil(t, client.LastRequest())

	_, err = client.Post(context.Background(), "http://example.com/", Header{}, 3.14)
	assert.ErrorIs(t, err, ErrInvalidBodyType)
	assert.Nil(t, client.LastRequest())
}

func TestClient_HostResolutionFailure(t *testing.T) {
	client := NewClient(WithResolver(localResolver()))

	_, err := client.Get(context.Background(), "http://nowhere.invalid/", Header{})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, `Hostname "nowhere.invalid" could not be resolved`, err.Error())

	// The request was built and handed to the transport before failing.
	require.NotNil(t, client.LastRequest())
	assert.Equal(t, "nowhere.invalid", client.LastRequest().URL.Host)
}

func TestClient_MalformedResponse(t *testing.T) {
	srv := newRawServer(t, []byte("garbage without separator"))
	defer srv.close()

	client := NewClient(WithResolver(localResolver("localhost")))
	_, err := client.Get(context.Background(), srv.url("/"), Header{})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClient_RawExchange(t *testing.T) {
	raw := []byte("HTTP/1.1 418 I'm a teapot\r\nX-A: 1\r\nX-A: 2\r\n\r\nshort and stout")
	srv := newRawServer(t, raw)
	srv.chunk = 3
	defer srv.close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client := NewClient(
		WithResolver(localResolver("localhost")),
		WithLogger(logger),
		WithChunkSize(5),
	)

	resp, err := client.Post(context.Background(), srv.url("/brew?milk=no"), NewHeader(Field{Key: "Host", Value: "ignored"}), "earl grey")
	require.NoError(t, err)

	assert.Equal(t, 418, resp.StatusCode)
	assert.Equal(t, "I'm a teapot", resp.StatusText)
	assert.Equal(t, "2", resp.Header.Get("X-A"))
	assert.Equal(t, "short and stout", string(resp.Content))
	assert.Equal(t, raw, resp.Raw)
	assert.Equal(t, string(raw), resp.String())

	sent := string(srv.lastRequest())
	assert.True(t, strings.HasPrefix(sent, "POST /brew?milk=no HTTP/1.1\r\nHost: localhost:"))
	assert.NotContains(t, sent, "ignored")
	assert.Contains(t, sent, "Content-Length: 9\r\n")
	assert.True(t, strings.HasSuffix(sent, "\r\n\r\nearl grey"))

	wire, err := resp.Request().Bytes()
	require.NoError(t, err)
	assert.Equal(t, sent, string(wire))
	assert.Equal(t, sent, resp.Request().String())

	assert.Contains(t, logs.String(), "exchange complete")
	assert.Contains(t, logs.String(), "response received")
}

func TestClient_LastRequestReset(t *testing.T) {
	srv := newRawServer(t, []byte("HTTP/1.1 200 OK\r\n\r\n"))
	defer srv.close()

	client := NewClient(WithResolver(localResolver("localhost")))
	_, err := client.Get(context.Background(), srv.url("/first"), Header{})
	require.NoError(t, err)
	require.NotNil(t, client.LastRequest())
	assert.Equal(t, "/first", client.LastRequest().URL.Path)

	_, err = client.Get(context.Background(), "gopher://example.com/", Header{})
	require.Error(t, err)
	assert.Nil(t, client.LastRequest())
}
