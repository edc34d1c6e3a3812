// Package parser implements the request file parser.
//
// The parser is a single pass, line oriented state machine. It is deliberately
// forgiving: odd but recoverable input (a header without a ':', a script block
// that never closes, a missing request line) is reported as a warning
// [syntax.Diagnostic] and parsing carries on. Valid text that has no place in
// the parsed request, like a comment, is reported as an info diagnostic.
// Only a failure to read the source at all results in [ErrParse], in which case
// the returned request is always the zero value, never a partial one.
package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"go.followtheprocess.codes/reqfile/internal/spec"
	"go.followtheprocess.codes/reqfile/internal/syntax"
)

// ErrParse is a generic parsing error, details on the error are passed
// to the parser's [syntax.ErrorHandler] at the moment it occurs.
var ErrParse = errors.New("parse error")

const (
	maxLineLength = 1024 * 1024            // Longest line the parser will accept
	contentType   = "content-type:"        // Part header prefix, matched case-insensitively
	disposition   = "content-disposition:" // Part header prefix, matched case-insensitively
	scriptOpening = "{%"                   // Opens an inline script
)

var (
	requestLine  = regexp.MustCompile(`(?i)^(GET|POST|PUT|PATCH|DELETE|HEAD|OPTIONS)\s+`)
	boundaryAttr = regexp.MustCompile(`boundary=([^;]+)`)
	nameAttr     = regexp.MustCompile(`(?:^|[;\s])name="([^"]+)"`)
	filenameAttr = regexp.MustCompile(`filename="([^"]+)"`)
)

// state is the main state of the parser.
type state int

const (
	stateBeforeRequestLine state = iota // Title, directives and pre-script
	stateHeaders                        // After the request line, before the first blank line
	stateBody                           // Everything after the header block
)

// script is the kind of script block currently being collected, collecting
// a script takes priority over the main state.
type script int

const (
	scriptNone script = iota
	scriptPre
	scriptPost
)

// line is a single line of source along with its 1 indexed line number.
type line struct {
	text   string
	number int
}

// Parser is the request file parser.
type Parser struct {
	handler     syntax.ErrorHandler // Called on every diagnostic, may be nil
	name        string              // Name of the file being parsed
	src         []byte              // Raw source text
	diagnostics []syntax.Diagnostic // Diagnostics gathered during parsing
	request     spec.Request        // The request being built up
	body        []line              // Lines of the body section
	script      strings.Builder     // Buffer for the script being collected
	scriptStart int                 // Line number the current script started on
	current     int                 // Current line number
	state       state               // Main parser state
	collecting  script              // Which script (if any) is being collected
	sawRequest  bool                // Whether a request line has been seen
}

// New initialises and returns a new [Parser] that parses src.
//
// The handler is called with every diagnostic as it is found, it may be nil
// in which case diagnostics are only available through [Parser.Diagnostics].
func New(name string, src []byte, handler syntax.ErrorHandler) *Parser {
	return &Parser{
		handler: handler,
		name:    name,
		src:     src,
	}
}

// Parse parses a request file with a default name and no error handler.
func Parse(src []byte) (spec.Request, error) {
	return New("request.http", src, nil).Parse()
}

// Parse parses the source to completion, returning the [spec.Request] it describes.
//
// An error is only returned if the source could not be read, in which case it
// will be [ErrParse] and the request will be the zero value.
func (p *Parser) Parse() (request spec.Request, err error) {
	if p == nil {
		return spec.Request{}, errors.New("Parse called on nil parser")
	}

	p.reset()

	defer func() {
		if r := recover(); r != nil {
			p.error(p.current, "", fmt.Sprintf("internal parser error: %v", r))
			request, err = spec.Request{}, ErrParse
		}
	}()

	scanner := bufio.NewScanner(bytes.NewReader(p.src))
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineLength)

	for scanner.Scan() {
		p.current++
		p.parseLine(strings.TrimSuffix(scanner.Text(), "\r"))
	}

	if err := scanner.Err(); err != nil {
		p.error(p.current+1, "", fmt.Sprintf("could not read line: %v", err))
		return spec.Request{}, ErrParse
	}

	p.finish()

	return p.request, nil
}

// Diagnostics returns any [syntax.Diagnostic] gathered during parsing, sorted
// by position.
func (p *Parser) Diagnostics() []syntax.Diagnostic {
	diagnostics := slices.Clone(p.diagnostics)
	slices.SortStableFunc(diagnostics, func(a, b syntax.Diagnostic) int {
		return syntax.ComparePosition(a.Position, b.Position)
	})

	return diagnostics
}

// reset clears any state left behind by a previous call to Parse.
func (p *Parser) reset() {
	p.diagnostics = nil
	p.request = spec.Request{Method: "GET"}
	p.body = nil
	p.script.Reset()
	p.scriptStart = 0
	p.current = 0
	p.state = stateBeforeRequestLine
	p.collecting = scriptNone
	p.sawRequest = false
}

// parseLine feeds a single line of source through the state machine.
func (p *Parser) parseLine(text string) {
	if p.collecting != scriptNone {
		p.collectScript(text)
		return
	}

	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)

	switch {
	case strings.HasPrefix(trimmed, spec.TitlePrefix):
		p.request.Name = strings.TrimSpace(strings.TrimPrefix(trimmed, spec.TitlePrefix))
	case strings.HasPrefix(trimmed, spec.DirectiveNoRedirect):
		p.request.NoRedirect = true
	case strings.HasPrefix(trimmed, spec.DirectiveNoCookieJar):
		p.request.NoCookieJar = true
	case strings.HasPrefix(trimmed, spec.DirectiveNoAutoEncoding):
		p.request.NoAutoEncoding = true
	case p.state == stateBeforeRequestLine && requestLine.MatchString(trimmed):
		p.parseRequestLine(trimmed)
	case strings.HasPrefix(trimmed, spec.SaveMarker):
		p.parseSave(text, trimmed)
	case p.state != stateBody && strings.HasPrefix(trimmed, spec.PreScriptMarker):
		p.startScript(scriptPre, text, trimmed)
	case strings.HasPrefix(trimmed, spec.PostScriptMarker):
		p.startScript(scriptPost, text, trimmed)
	case trimmed == "":
		switch p.state {
		case stateHeaders:
			p.state = stateBody
		case stateBody:
			p.body = append(p.body, line{text: text, number: p.current})
		case stateBeforeRequestLine:
			// Stray blank lines before the request are meaningless
		}
	case p.state == stateHeaders:
		p.parseHeader(text, trimmed)
	case p.state == stateBody:
		p.body = append(p.body, line{text: text, number: p.current})
	case isComment(trimmed):
		p.note(p.current, text, "comment is not kept in the request")
	default:
		p.warn(p.current, text, "unexpected text before the request line")
	}
}

// parseRequestLine handles the "METHOD url [version]" line.
func (p *Parser) parseRequestLine(trimmed string) {
	fields := strings.Fields(trimmed)

	p.request.Method = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.request.URL = fields[1]
	}

	if len(fields) > 2 { //nolint:mnd // Method, URL, Version
		p.request.HTTPVersion = fields[2]
	}

	if len(fields) > 3 { //nolint:mnd // Method, URL, Version
		p.warn(p.current, trimmed, "extra text after the HTTP version ignored")
	}

	p.sawRequest = true
	p.state = stateHeaders
}

// parseSave handles a ">> path" or ">>! path" response save directive.
//
// The saved path is reduced to a bare name: any directory is dropped along with
// everything after the last '.' and then everything after the last '-', so
// ">> responses/out-2024.json" becomes "out".
func (p *Parser) parseSave(text, trimmed string) {
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, spec.SaveMarker))

	force := strings.HasPrefix(rest, "!")
	path := strings.TrimSpace(strings.TrimPrefix(rest, "!"))

	if path == "" {
		p.warn(p.current, text, "response save directive has no path")
		return
	}

	short := spec.LastSegment(path)
	short = beforeLast(short, ".")
	short = beforeLast(short, "-")

	if short != path {
		p.note(p.current, text, fmt.Sprintf("response save path %q is kept as %q", path, short))
	}

	p.request.ResponseSavePath = short
	p.request.ForceSave = force
}

// parseHeader handles a single "Key: Value" header line.
func (p *Parser) parseHeader(text, trimmed string) {
	if isComment(trimmed) {
		p.note(p.current, text, "comment is not kept in the request")
		return
	}

	key, value, ok := strings.Cut(text, ":")
	if !ok || strings.TrimSpace(key) == "" {
		p.warn(p.current, text, "header line has no key, expected 'Key: Value'")
		return
	}

	p.request.Headers = append(p.request.Headers, spec.Header{
		Key:   strings.TrimSpace(key),
		Value: strings.TrimSpace(value),
	})
}

// startScript begins collecting a pre or post script block.
//
// A block closes on the first line ending in "%}", which may be the opening line
// itself. A marker followed by anything other than "{%" is a reference to a
// script file and so is complete on its own.
func (p *Parser) startScript(kind script, text, trimmed string) {
	marker := spec.PreScriptMarker
	if kind == scriptPost {
		marker = spec.PostScriptMarker
	}

	p.collecting = kind
	p.scriptStart = p.current
	p.script.Reset()
	p.script.WriteString(text)
	p.script.WriteByte('\n')

	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, marker))
	if endsScript(text) || (rest != "" && !strings.HasPrefix(rest, scriptOpening)) {
		p.finishScript()
	}
}

// collectScript adds a line to the script block being collected.
func (p *Parser) collectScript(text string) {
	p.script.WriteString(text)
	p.script.WriteByte('\n')

	if endsScript(text) {
		p.finishScript()
	}
}

// finishScript stores the collected script on the request.
func (p *Parser) finishScript() {
	text := strings.TrimRightFunc(p.script.String(), unicode.IsSpace)

	switch p.collecting {
	case scriptPre:
		p.request.PreScript = text
	case scriptPost:
		p.request.PostScript = text
	case scriptNone:
		// Nothing being collected
	}

	p.collecting = scriptNone
	p.script.Reset()
}

// finish runs once every line has been seen, tidying up and parsing the multipart body.
func (p *Parser) finish() {
	if p.collecting != scriptNone {
		p.warn(p.scriptStart, "", "script block is never closed with '%}', using it up to the end of the file")
		p.finishScript()
	}

	if !p.sawRequest {
		p.warn(1, "", "no request line found, expected e.g. 'GET https://example.com'")
	}

	lines := trimBlank(p.body)

	texts := make([]string, 0, len(lines))
	for _, l := range lines {
		texts = append(texts, l.text)
	}

	p.request.Body = strings.Join(texts, "\n")

	header := p.request.Headers.Get(spec.HeaderContentType)
	if !strings.Contains(strings.ToLower(header), spec.MediaMultipart) {
		return
	}

	match := boundaryAttr.FindStringSubmatch(header)
	if match == nil {
		p.warn(p.headerLine(), "", "multipart Content-Type header has no boundary, body left as is")
		return
	}

	boundary := strings.Trim(strings.TrimSpace(match[1]), `"`)
	p.request.Boundary = boundary

	if len(lines) == 0 {
		return
	}

	if parts := p.parseParts(lines, boundary); len(parts) > 0 {
		p.request.Parts = parts
		p.request.Body = ""
	}
}

// headerLine returns an approximate line number for the header block, used
// for diagnostics raised after the line pass.
func (p *Parser) headerLine() int {
	if len(p.body) > 0 {
		return max(p.body[0].number-1, 1)
	}

	return max(p.current, 1)
}

// partBuilder accumulates a single multipart part.
type partBuilder struct {
	name        string
	filename    string
	contentType string
	path        string
	value       []string
	start       int
	isFile      bool
	inBody      bool
}

// build converts the builder into its concrete part.
func (b *partBuilder) build() spec.Part {
	if b.isFile {
		return spec.FilePart{
			Name:        b.name,
			Path:        b.path,
			Filename:    b.filename,
			ContentType: b.contentType,
		}
	}

	return spec.TextPart{
		Name:        b.name,
		Value:       strings.TrimRightFunc(strings.Join(b.value, "\n"), unicode.IsSpace),
		ContentType: b.contentType,
	}
}

// parseParts splits the body lines of a multipart request into parts.
func (p *Parser) parseParts(lines []line, boundary string) []spec.Part {
	delimiter := "--" + boundary

	var (
		parts   []spec.Part
		current *partBuilder
		closed  bool
	)

	flush := func() {
		if current == nil {
			return
		}

		if current.name == "" {
			p.warn(current.start, "", "multipart part has no name, skipping it")
		} else {
			parts = append(parts, current.build())
		}

		current = nil
	}

	for i, l := range lines {
		if strings.HasPrefix(l.text, delimiter) {
			flush()

			if strings.HasPrefix(strings.TrimSpace(l.text[len(delimiter):]), "--") {
				closed = true

				for _, after := range lines[i+1:] {
					if strings.TrimSpace(after.text) != "" {
						p.note(after.number, after.text, "text after the closing multipart boundary is not kept")
					}
				}

				break
			}

			current = &partBuilder{start: l.number}

			continue
		}

		if current == nil {
			if strings.TrimSpace(l.text) != "" {
				p.note(l.number, l.text, "text before the first multipart boundary is not kept")
			}

			continue
		}

		if !current.inBody {
			p.parsePartHeader(current, l)
			continue
		}

		switch {
		case current.isFile && strings.HasPrefix(l.text, spec.FileRefPrefix):
			current.path = strings.TrimSpace(strings.TrimPrefix(l.text, spec.FileRefPrefix))
		case current.isFile:
			if strings.TrimSpace(l.text) != "" {
				p.warn(l.number, l.text, "file part content must be a '< path' reference, ignoring")
			}
		default:
			current.value = append(current.value, l.text)
		}
	}

	if !closed && current != nil {
		p.warn(current.start, "", fmt.Sprintf("multipart body is not closed with '%s--'", delimiter))
	}

	flush()

	return parts
}

// parsePartHeader handles a line in the header section of a multipart part.
func (p *Parser) parsePartHeader(current *partBuilder, l line) {
	lower := strings.ToLower(l.text)

	switch {
	case strings.TrimSpace(l.text) == "":
		current.inBody = true
	case strings.HasPrefix(lower, disposition):
		if match := nameAttr.FindStringSubmatch(l.text); match != nil {
			current.name = match[1]
		}

		if match := filenameAttr.FindStringSubmatch(l.text); match != nil {
			current.filename = match[1]
			current.isFile = true
		}
	case strings.HasPrefix(lower, contentType):
		current.contentType = strings.TrimSpace(l.text[len(contentType):])
	default:
		p.warn(l.number, l.text, "unknown multipart part header ignored")
	}
}

// note records an info diagnostic against the given line.
func (p *Parser) note(number int, text, msg string) {
	p.report(number, text, msg, syntax.SeverityInfo)
}

// warn records a warning diagnostic against the given line.
func (p *Parser) warn(number int, text, msg string) {
	p.report(number, text, msg, syntax.SeverityWarning)
}

// error records an error diagnostic against the given line.
func (p *Parser) error(number int, text, msg string) {
	p.report(number, text, msg, syntax.SeverityError)
}

// report records a diagnostic and passes it to the handler.
func (p *Parser) report(number int, text, msg string, severity syntax.Severity) {
	diag := syntax.Diagnostic{
		Msg:      msg,
		Position: syntax.LinePosition(p.name, max(number, 1), len(text)),
		Severity: severity,
	}

	p.diagnostics = append(p.diagnostics, diag)

	if p.handler != nil {
		p.handler(diag)
	}
}

// endsScript reports whether text closes a script block.
func endsScript(text string) bool {
	return strings.HasSuffix(strings.TrimRightFunc(text, unicode.IsSpace), spec.ScriptEnd)
}

// isComment reports whether a (left trimmed) line is a plain comment.
func isComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//")
}

// beforeLast returns s up to the last occurrence of sep, or s if there is none.
func beforeLast(s, sep string) string {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i]
	}

	return s
}

// trimBlank drops leading and trailing blank lines.
func trimBlank(lines []line) []line {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start].text) == "" {
		start++
	}

	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1].text) == "" {
		end--
	}

	return lines[start:end]
}
