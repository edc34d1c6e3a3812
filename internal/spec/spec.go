// Package spec provides the Request type, the concrete, canonical data structure
// describing a single HTTP request stored in a .http request file, along with
// the multipart parts and headers that make it up.
//
// A [Request] is a plain value, every import, load or edit builds a fresh one
// and nothing in this package mutates a Request passed to it.
//
// The canonical .http text form of a request is produced by [Request.String], the
// reverse direction lives in package syntax/parser.
package spec

import (
	"regexp"
	"strings"
)

// DefaultBoundary is the multipart boundary used when a multipart request
// does not specify one.
const DefaultBoundary = "WebAppBoundary"

// CollectionsDir is the directory, relative to the project root, request files
// are saved under by default. Each sub-directory of it is a collection.
const CollectionsDir = "http-client-plus/collections"

// Directive comment lines, each one enables a boolean setting on the request.
const (
	DirectiveNoRedirect     = "# @no-redirect"
	DirectiveNoCookieJar    = "# @no-cookie-jar"
	DirectiveNoAutoEncoding = "# @no-auto-encoding"
)

// Line markers of the request file format.
const (
	TitlePrefix      = "###" // Starts the title line holding the request name
	PreScriptMarker  = "<"   // Starts a pre-request script block
	PostScriptMarker = ">"   // Starts a response handler script block
	SaveMarker       = ">>"  // Starts a response-save directive
	ForceSaveMarker  = ">>!" // Starts a response-save directive that overwrites
	ScriptEnd        = "%}"  // Closes a script block
	FileRefPrefix    = "< "  // References a file in a multipart part body
)

// Well known header names and media types.
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	MediaJSON           = "application/json"
	MediaMultipart      = "multipart/form-data"
	MediaOctetStream    = "application/octet-stream"
	MediaTextPlain      = "text/plain"
	MediaFormURLEncoded = "application/x-www-form-urlencoded"
)

// Methods is the set of HTTP methods a request line may start with.
//
//nolint:gochecknoglobals // Shared by the parser and the listing code
var Methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

// unsafeStemChars matches every character not allowed in a request file stem.
var unsafeStemChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Sanitize turns a logical request name into a file-friendly stem, replacing
// every character outside [a-zA-Z0-9-_] with an underscore.
func Sanitize(name string) string {
	return unsafeStemChars.ReplaceAllString(strings.TrimSpace(name), "_")
}

// LastSegment returns the text after the final '/' in path, or path itself if
// it contains no '/'.
func LastSegment(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}

	return path
}
