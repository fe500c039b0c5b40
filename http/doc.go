// Package http is a minimal HTTP/1.1 client written directly on TCP and TLS
// sockets. It does not use net/http.
//
// Every request opens a new connection, sends "Connection: close", writes
// the whole message, then reads until the server closes the connection. The
// response is held in memory and parsed in one pass.
//
// Supported:
//   - http and https URLs of the form scheme://host[:port][/path][?query]
//   - GET and POST, with string or []byte bodies
//   - decoding response bodies from any IANA charset
//
// Not supported: keep-alive, chunked transfer coding, redirects, cookies,
// compression, HTTP/2, proxies, timeouts and streaming.
//
// Basic Usage:
//
//	client := http.NewClient()
//
//	resp, err := client.Get(context.Background(), "http://example.com/a?b=1", http.Header{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Status: %d %s\n", resp.StatusCode, resp.StatusText)
//	body, _ := resp.Text("utf-8", http.Replace)
//	fmt.Println(body)
//
// Posting a body:
//
//	header := http.NewHeader(http.Field{Key: "Content-Type", Value: "application/json"})
//	resp, err := client.Post(ctx, "https://api.example.com/users", header, `{"name":"John"}`)
//
// Header precedence:
//
// Host and Connection are always written by the client. User-Agent, Accept
// and Accept-Encoding defaults are written only when the caller did not pass
// the same key. Content-Length is computed from the body.
//
// Errors:
//
// URL, method and body errors are reported before any I/O. A hostname that
// cannot be resolved yields a *HostResolutionError, which IsFatal reports.
// Responses that are not valid HTTP/1.x yield ErrMalformedResponse.
//
// Thread Safety:
//
// A Client records its last request and must not be shared between
// goroutines. Separate Clients are independent.
package http
