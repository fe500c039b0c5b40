package http

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// ErrorPolicy selects how invalid byte sequences are handled when decoding text.
type ErrorPolicy int

const (
	// Replace substitutes U+FFFD for every invalid byte. A truncated
	// multi-byte sequence such as "\xe2\x82" therefore yields two U+FFFD,
	// not the single one of per maximal subpart replacement.
	Replace ErrorPolicy = iota
	// Strict fails with ErrDecode on the first invalid byte.
	Strict
	// Ignore drops invalid bytes.
	Ignore
)

func (p ErrorPolicy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Ignore:
		return "ignore"
	default:
		return "replace"
	}
}

// ParseErrorPolicy maps "strict", "replace" or "ignore" to a policy.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(s) {
	case "", "replace":
		return Replace, nil
	case "strict":
		return Strict, nil
	case "ignore":
		return Ignore, nil
	}
	return Replace, errors.Errorf("unknown error policy %q", s)
}

func decodeUTF8(b []byte, policy ErrorPolicy) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}

	var sb strings.Builder
	sb.Grow(len(b))
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			switch policy {
			case Strict:
				return "", errors.Wrapf(ErrDecode, "utf-8 at offset %d", i)
			case Replace:
				sb.WriteRune(utf8.RuneError)
			}
			i++
			continue
		}
		sb.WriteRune(r)
		i += size
	}
	return sb.String(), nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, errors.Wrapf(ErrUnknownEncoding, "%q", name)
	}
	return enc, nil
}

// decodeText decodes b from the named charset.
//
// Non UTF-8 decoders from x/text map undecodable input to U+FFFD, so the
// Strict and Ignore policies act on those replacement characters.
func decodeText(b []byte, name string, policy ErrorPolicy) (string, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return decodeUTF8(b, policy)
	}

	enc, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}
	if enc == unicode.UTF8 {
		return decodeUTF8(b, policy)
	}

	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrapf(ErrDecode, "%s: %v", name, err)
	}

	s := string(out)
	switch policy {
	case Strict:
		if strings.ContainsRune(s, utf8.RuneError) {
			return "", errors.Wrapf(ErrDecode, "%s", name)
		}
	case Ignore:
		s = strings.ReplaceAll(s, string(utf8.RuneError), "")
	}
	return s, nil
}
