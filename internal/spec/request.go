package spec

import (
	"strings"
)

// Request is a single HTTP request as stored in a request file, as a canonical,
// concrete representation.
//
// Variable placeholders like {{host}} are kept verbatim, resolving them is
// the job of whatever eventually sends the request.
type Request struct {
	// The HTTP method, canonicalised to upper case when serialised
	Method string

	// The complete URL, may already contain a query string and/or {{variables}}
	URL string

	// Request headers in file order, duplicates allowed
	Headers Headers

	// Raw request body, empty means no body. Mutually exclusive with Parts
	Body string

	// Optional logical name, rendered as the title line and used for the file stem
	Name string

	// Multipart boundary, DefaultBoundary is used if empty and the body is multipart
	Boundary string

	// Parts of a multipart/form-data body in order
	Parts []Part

	// HTTP version token appended to the request line e.g. "HTTP/2", empty for none
	HTTPVersion string

	// Pre-request script, emitted before the request line with a leading '<'
	PreScript string

	// Response handler script, emitted after the body with a leading '>'
	PostScript string

	// Name of the file the response is saved to, empty for none
	ResponseSavePath string

	// Directory (relative to the project root) the request file lives in,
	// empty for the default collections directory
	SaveDir string

	// Disable following redirects
	NoRedirect bool

	// Disable the cookie jar
	NoCookieJar bool

	// Disable automatic URL encoding
	NoAutoEncoding bool

	// Overwrite the response file instead of creating a new one each time
	ForceSave bool

	// Whether the request should be executed as soon as it is created
	RunImmediately bool
}

// IsMultipart reports whether the request has a multipart/form-data body, either
// because it has parts or because a Content-Type header declares one.
func (r Request) IsMultipart() bool {
	if len(r.Parts) > 0 {
		return true
	}

	for _, header := range r.Headers {
		if strings.EqualFold(header.Key, HeaderContentType) &&
			strings.Contains(strings.ToLower(header.Value), MediaMultipart) {
			return true
		}
	}

	return false
}

// EffectiveBoundary returns the multipart boundary to use for the request.
func (r Request) EffectiveBoundary() string {
	if boundary := strings.TrimSpace(r.Boundary); boundary != "" {
		return boundary
	}

	return DefaultBoundary
}

// CanonicalMethod returns the upper cased method, defaulting to GET.
func (r Request) CanonicalMethod() string {
	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		return "GET"
	}

	return method
}

// Title returns the name of the request, or "METHOD url" if it has none.
func (r Request) Title() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}

	return r.CanonicalMethod() + " " + r.URL
}

// Stem returns the file stem (name without extension) derived from the request
// name, or "" if the request is unnamed.
func (r Request) Stem() string {
	if strings.TrimSpace(r.Name) == "" {
		return ""
	}

	return Sanitize(r.Name)
}

// EffectiveHeaders returns the headers as they are written to the request file,
// i.e. with the multipart Content-Type (or JSON Content-Type for a POST body)
// filled in.
func (r Request) EffectiveHeaders() Headers {
	headers := r.Headers.Clone()

	switch {
	case r.IsMultipart():
		headers = headers.Set(HeaderContentType, MediaMultipart+"; boundary="+r.EffectiveBoundary())
	case r.CanonicalMethod() == "POST" && !headers.Has(HeaderContentType) && strings.TrimSpace(r.Body) != "":
		headers = headers.Add(HeaderContentType, MediaJSON)
	}

	return headers
}

// String implements [fmt.Stringer] for a [Request] and renders it as
// a complete, syntactically valid request file.
func (r Request) String() string {
	builder := &strings.Builder{}

	if name := strings.TrimSpace(r.Name); name != "" {
		builder.WriteString(TitlePrefix + " " + r.Name + "\n")
	}

	if r.NoRedirect {
		builder.WriteString(DirectiveNoRedirect + "\n")
	}

	if r.NoCookieJar {
		builder.WriteString(DirectiveNoCookieJar + "\n")
	}

	if r.NoAutoEncoding {
		builder.WriteString(DirectiveNoAutoEncoding + "\n")
	}

	writeScript(builder, r.PreScript, PreScriptMarker)

	builder.WriteString(r.CanonicalMethod() + " " + r.URL)

	if version := strings.TrimSpace(r.HTTPVersion); version != "" {
		builder.WriteString(" " + version)
	}

	builder.WriteByte('\n')

	for _, header := range r.EffectiveHeaders() {
		builder.WriteString(header.String())
		builder.WriteByte('\n')
	}

	// Headers are always terminated by a blank line, even with no body
	builder.WriteByte('\n')

	if r.IsMultipart() {
		boundary := r.EffectiveBoundary()
		for _, part := range r.Parts {
			builder.WriteString("--" + boundary + "\n")
			writePart(builder, part)
		}

		builder.WriteString("--" + boundary + "--\n")
	} else if strings.TrimSpace(r.Body) != "" {
		builder.WriteString(r.Body)
		builder.WriteByte('\n')
	}

	writeScript(builder, r.PostScript, PostScriptMarker)

	if path := strings.TrimSpace(r.ResponseSavePath); path != "" {
		if r.ForceSave {
			builder.WriteString(ForceSaveMarker + " ")
		} else {
			builder.WriteString(SaveMarker + " ")
		}

		builder.WriteString(path)
		builder.WriteByte('\n')
	}

	builder.WriteByte('\n')

	return builder.String()
}

// writeScript writes a script block, prefixing it with marker if it doesn't
// already start with one and making sure it ends in a newline.
func writeScript(builder *strings.Builder, script, marker string) {
	if strings.TrimSpace(script) == "" {
		return
	}

	if !strings.HasPrefix(script, marker) {
		builder.WriteString(marker + " ")
	}

	builder.WriteString(script)

	if !strings.HasSuffix(script, "\n") {
		builder.WriteByte('\n')
	}
}
