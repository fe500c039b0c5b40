package http

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedScheme is returned when a URL scheme is not exactly "http" or "https".
	ErrUnsupportedScheme = errors.New("scheme not supported")
	// ErrInvalidURL is returned when a URL does not match the accepted grammar.
	ErrInvalidURL = errors.New("invalid url")
	// ErrFragmentNotSupported is returned for URLs carrying a "#fragment".
	// Fragments are rejected rather than stripped.
	ErrFragmentNotSupported = errors.New("url fragments are not supported")

	// ErrUnsupportedMethod is returned for methods other than GET and POST.
	ErrUnsupportedMethod = errors.New("method not supported")
	// ErrInvalidHeader is returned for a header field that would not stay a
	// single line: a key with a colon, or a key or value with CR or LF.
	ErrInvalidHeader = errors.New("invalid header field")
	// ErrInvalidBodyType is returned when a request body is neither a string nor a []byte.
	ErrInvalidBodyType = errors.New("request body can only be string or []byte")

	// ErrMalformedResponse is returned when the received bytes are not a parsable HTTP/1.x response.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUnknownEncoding is returned by Response.Text for an unrecognized charset name.
	ErrUnknownEncoding = errors.New("unknown encoding")
	// ErrDecode is returned by Response.Text under the Strict policy when the body has invalid sequences.
	ErrDecode = errors.New("invalid byte sequence")
)

// HostResolutionError reports that a hostname could not be resolved to an IPv4 address.
// A command line front end is expected to treat it as fatal.
type HostResolutionError struct {
	Host string
	Err  error
}

func (e *HostResolutionError) Error() string {
	return fmt.Sprintf("Hostname \"%s\" could not be resolved", e.Host)
}

func (e *HostResolutionError) Unwrap() error { return e.Err }

// IsFatal reports whether err is a host resolution failure.
func IsFatal(err error) bool {
	var hre *HostResolutionError
	return errors.As(err, &hre)
}
