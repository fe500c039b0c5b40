package http

import "strings"

// Field is a single header line.
type Field struct {
	Key   string
	Value string
}

// Header is an ordered collection of header fields.
//
// Keys are kept exactly as provided. Setting an existing key replaces its
// value and keeps its original position. The zero value is an empty header.
type Header struct {
	fields []Field
}

// NewHeader returns a header holding the given fields. Later duplicates win.
func NewHeader(fields ...Field) Header {
	var h Header
	for _, f := range fields {
		h.Set(f.Key, f.Value)
	}
	return h
}

// Set stores value under key.
func (h *Header) Set(key, value string) {
	for i := range h.fields {
		if h.fields[i].Key == key {
			h.fields[i].Value = value
			return
		}
	}
	h.fields = append(h.fields, Field{Key: key, Value: value})
}

// Get returns the value for key. An exact match is preferred, otherwise the
// first case-insensitive match is returned.
func (h Header) Get(key string) string {
	if v, ok := h.Lookup(key); ok {
		return v
	}
	for _, f := range h.fields {
		if strings.EqualFold(f.Key, key) {
			return f.Value
		}
	}
	return ""
}

// Lookup returns the value stored under exactly key.
func (h Header) Lookup(key string) (string, bool) {
	for _, f := range h.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Has reports whether exactly key is present.
func (h Header) Has(key string) bool {
	_, ok := h.Lookup(key)
	return ok
}

// Del removes exactly key.
func (h *Header) Del(key string) {
	for i := range h.fields {
		if h.fields[i].Key == key {
			h.fields = append(h.fields[:i], h.fields[i+1:]...)
			return
		}
	}
}

// Fields returns a copy of the fields in order.
func (h Header) Fields() []Field {
	out := make([]Field, len(h.fields))
	copy(out, h.fields)
	return out
}

// Len returns the number of fields.
func (h Header) Len() int { return len(h.fields) }

// Clone returns a deep copy.
func (h Header) Clone() Header {
	return Header{fields: h.Fields()}
}
