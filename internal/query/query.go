// Package query builds and extracts URL query strings.
//
// Encoding follows HTML form rules (spaces become '+') and any key or value
// containing a {{variable}} placeholder is always passed through verbatim so
// that template syntax survives untouched.
package query

import (
	"net/url"
	"strings"
)

// templateOpen marks the start of a {{variable}} placeholder.
const templateOpen = "{{"

// Param is a single query parameter, order and duplicates are meaningful.
type Param struct {
	Key   string `json:"key"             toml:"key"             yaml:"key"`
	Value string `json:"value,omitempty" toml:"value,omitempty" yaml:"value,omitempty"`
}

// HasTemplate reports whether s contains a {{variable}} placeholder.
func HasTemplate(s string) bool {
	return strings.Contains(s, templateOpen)
}

// Build appends params to base as a query string.
//
// Params with a blank key are dropped and if none remain, base is returned unchanged.
// The separator is '&' if base already has a query string, '?' otherwise.
//
// When autoEncode is true each key and value is form encoded unless it
// contains a template placeholder.
func Build(base string, params []Param, autoEncode bool) string {
	pairs := make([]string, 0, len(params))
	for _, param := range params {
		if strings.TrimSpace(param.Key) == "" {
			continue
		}

		pairs = append(pairs, encode(param.Key, autoEncode)+"="+encode(param.Value, autoEncode))
	}

	if len(pairs) == 0 {
		return base
	}

	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}

	return base + separator + strings.Join(pairs, "&")
}

// Extract returns the params in the query string of rawURL, in order.
//
// Segments without an '=' have an empty value. If any segment is not validly
// encoded, Extract returns nil rather than a partial result.
func Extract(rawURL string) []Param {
	_, rawQuery, found := strings.Cut(rawURL, "?")
	if !found || rawQuery == "" {
		return nil
	}

	// Drop any fragment, it's not part of the query
	rawQuery, _, _ = strings.Cut(rawQuery, "#")

	var params []Param
	for segment := range strings.SplitSeq(rawQuery, "&") {
		if segment == "" {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(segment, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil
		}

		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil
		}

		params = append(params, Param{Key: key, Value: value})
	}

	return params
}

// VariableizeHost replaces the host of an absolute URL with the {{host}}
// placeholder, keeping the scheme, port, path, query and fragment.
//
// URLs that already contain a placeholder, are relative or do not parse are
// returned unchanged.
func VariableizeHost(rawURL string) string {
	if HasTemplate(rawURL) {
		return rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Hostname() == "" {
		return rawURL
	}

	var builder strings.Builder
	builder.WriteString(parsed.Scheme + "://{{host}}")

	if port := parsed.Port(); port != "" {
		builder.WriteString(":" + port)
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}

	builder.WriteString(path)

	if parsed.RawQuery != "" {
		builder.WriteString("?" + parsed.RawQuery)
	}

	if parsed.Fragment != "" {
		builder.WriteString("#" + parsed.EscapedFragment())
	}

	return builder.String()
}

// encode form-encodes s if enabled and s is not a template.
func encode(s string, enabled bool) string {
	if !enabled || HasTemplate(s) {
		return s
	}

	return url.QueryEscape(s)
}
