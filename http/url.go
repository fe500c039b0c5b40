package http

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Scheme is the URL scheme of a request. Only http and https are supported.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

// DefaultPort returns the well-known port for the scheme.
func (s Scheme) DefaultPort() int {
	if s == SchemeHTTPS {
		return 443
	}
	return 80
}

// Secure reports whether the scheme runs over TLS.
func (s Scheme) Secure() bool { return s == SchemeHTTPS }

// URL is an absolute http or https URL split into its components.
type URL struct {
	Scheme Scheme
	Host   string
	Port   int
	Path   string
	// Query is kept verbatim, it is never decoded.
	Query string
	// ForceQuery is set when the input had a "?" followed by an empty query.
	ForceQuery bool
}

var (
	schemePattern = regexp.MustCompile(`^([A-Za-z0-9+.\-]+)://`)

	urlPattern = regexp.MustCompile(`^(?P<scheme>[A-Za-z0-9+.\-]+)://` +
		`(?P<host>[A-Za-z0-9.\-]+)` +
		`(?::(?P<port>[0-9]+))?` +
		`(?P<path>/[A-Za-z0-9\-._~%!$&'()*+,;=:@/]*)?` +
		`(?P<q>\?(?P<query>[A-Za-z0-9\-._~%!$&'()*+,;=:@/?]*))?$`)
)

// ParseURL parses an absolute URL of the form scheme://host[:port][/path][?query].
//
// Hosts are limited to letters, digits, dots and hyphens. Missing ports
// default from the scheme and a missing path becomes "/". URLs with a
// fragment are rejected with ErrFragmentNotSupported.
func ParseURL(raw string) (*URL, error) {
	m := schemePattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, errors.Wrapf(ErrInvalidURL, "%q has no scheme", raw)
	}

	scheme := Scheme(m[1])
	if scheme != SchemeHTTP && scheme != SchemeHTTPS {
		return nil, errors.Wrapf(ErrUnsupportedScheme, "scheme %q", m[1])
	}

	if strings.Contains(raw, "#") {
		return nil, errors.Wrapf(ErrFragmentNotSupported, "%q", raw)
	}

	parts := urlPattern.FindStringSubmatch(raw)
	if parts == nil {
		return nil, errors.Wrapf(ErrInvalidURL, "%q", raw)
	}

	group := func(name string) string {
		return parts[urlPattern.SubexpIndex(name)]
	}

	u := &URL{
		Scheme: scheme,
		Host:   group("host"),
		Port:   scheme.DefaultPort(),
		Path:   group("path"),
		Query:  group("query"),
	}

	if port := group("port"); port != "" {
		n, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidURL, "port %q", port)
		}
		u.Port = int(n)
	}

	if u.Path == "" {
		u.Path = "/"
	}

	if group("q") != "" && u.Query == "" {
		u.ForceQuery = true
	}

	return u, nil
}

// HasQuery reports whether the URL carried a query component, possibly empty.
func (u *URL) HasQuery() bool {
	return u.Query != "" || u.ForceQuery
}

// RequestTarget returns the origin-form target sent on the request line.
func (u *URL) RequestTarget() string {
	if u.HasQuery() {
		return u.Path + "?" + u.Query
	}
	return u.Path
}

// Authority returns the value of the Host header: the bare host for the
// scheme's default port, host:port otherwise.
func (u *URL) Authority() string {
	if u.Port == u.Scheme.DefaultPort() {
		return u.Host
	}
	return u.Host + ":" + strconv.Itoa(u.Port)
}

// String reconstructs the URL with an explicit port.
func (u *URL) String() string {
	return string(u.Scheme) + "://" + u.Host + ":" + strconv.Itoa(u.Port) + u.RequestTarget()
}
