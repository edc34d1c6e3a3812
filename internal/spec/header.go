package spec

import (
	"slices"
	"strings"
)

// Header is a single request header.
type Header struct {
	Key   string `json:"key"             toml:"key"             yaml:"key"`
	Value string `json:"value,omitempty" toml:"value,omitempty" yaml:"value,omitempty"`
}

// String implements [fmt.Stringer] for a [Header], rendering it
// as a request file header line (without the newline).
func (h Header) String() string {
	return h.Key + ": " + h.Value
}

// Headers is an ordered list of request headers.
//
// Unlike [net/http.Header], order and duplicate keys are preserved so they
// survive a round trip through a request file. Key lookups are case-insensitive,
// key case is kept as written.
type Headers []Header

// Index returns the position of the first header whose key matches key
// case-insensitively, or -1 if there is none.
func (h Headers) Index(key string) int {
	return slices.IndexFunc(h, func(header Header) bool {
		return strings.EqualFold(header.Key, key)
	})
}

// Has reports whether a header with the given key is present.
func (h Headers) Has(key string) bool {
	return h.Index(key) >= 0
}

// Get returns the value of the first header matching key, or "" if
// there is none.
func (h Headers) Get(key string) string {
	if i := h.Index(key); i >= 0 {
		return h[i].Value
	}

	return ""
}

// Clone returns a copy of the headers that shares no memory with h.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}

	return slices.Clone(h)
}

// Add returns a copy of h with a new header appended, leaving any existing
// headers with the same key in place.
func (h Headers) Add(key, value string) Headers {
	return append(h.Clone(), Header{Key: key, Value: value})
}

// Set returns a copy of h where the first header matching key has been
// replaced (keeping its position), or the header appended if there was none.
func (h Headers) Set(key, value string) Headers {
	out := h.Clone()
	if i := out.Index(key); i >= 0 {
		out[i] = Header{Key: key, Value: value}
		return out
	}

	return append(out, Header{Key: key, Value: value})
}
