package format

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"

	"go.followtheprocess.codes/reqfile/internal/spec"
)

const (
	// CurlSaveDir is the directory (relative to the project root) imported curl
	// commands are saved in.
	CurlSaveDir = spec.CollectionsDir + "/Curl_Imports"

	// curlDefaultName is the request name used when the URL has no trailing segment.
	curlDefaultName = "Curl_Request"

	// curlAcceptEncoding is the Accept-Encoding header curl sends with --compressed.
	curlAcceptEncoding = "gzip, deflate, br"
)

// curlShort maps the short flags that may have their argument attached
// (e.g. -XPOST) to their long form.
//
//nolint:gochecknoglobals // Read only lookup table
var curlShort = map[string]string{
	"-X": "--request",
	"-H": "--header",
	"-d": "--data",
	"-u": "--user",
	"-F": "--form",
	"-A": "--user-agent",
	"-e": "--referer",
	"-b": "--cookie",
}

// curlIgnoredWithArg are flags that take an argument but have no bearing on
// the request file, their argument is skipped so it is never mistaken for the URL.
//
//nolint:gochecknoglobals // Read only lookup table
var curlIgnoredWithArg = map[string]bool{
	"-o":                true,
	"--output":          true,
	"-x":                true,
	"--proxy":           true,
	"-m":                true,
	"--max-time":        true,
	"--connect-timeout": true,
	"-w":                true,
	"--write-out":       true,
	"-E":                true,
	"--cert":            true,
	"--cacert":          true,
	"--key":             true,
	"--resolve":         true,
	"-c":                true,
	"--cookie-jar":      true,
}

// CurlImporter is an [Importer] that reads curl command lines.
//
// The input may hold any number of commands, each starting on a new line with
// "curl" (optionally after a "$ " shell prompt) and continuing until the next one.
// Text before the first command is ignored.
type CurlImporter struct{}

// Import implements [Importer] for [CurlImporter].
func (c CurlImporter) Import(r io.Reader) ([]spec.Request, error) {
	var (
		commands []string
		current  []string
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), 1024*1024) //nolint:mnd // 1MiB

	for scanner.Scan() {
		line := scanner.Text()
		if startsCurl(line) {
			if len(current) > 0 {
				commands = append(commands, strings.Join(current, "\n"))
			}

			current = []string{line}

			continue
		}

		if len(current) > 0 {
			current = append(current, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read curl input: %w", err)
	}

	if len(current) > 0 {
		commands = append(commands, strings.Join(current, "\n"))
	}

	requests := make([]spec.Request, 0, len(commands))
	for _, command := range commands {
		if request, ok := ParseCurl(command); ok {
			requests = append(requests, request)
		}
	}

	return requests, nil
}

// ParseCurl converts a single curl command line into a request.
//
// The command may span several lines joined with trailing backslashes. It returns
// false if the command does not start with curl or has no http(s) URL.
func ParseCurl(command string) (spec.Request, bool) {
	tokens := tokenizeCurl(command)
	if len(tokens) > 0 && tokens[0] == "$" {
		tokens = tokens[1:]
	}

	if len(tokens) == 0 || !strings.EqualFold(tokens[0], "curl") {
		return spec.Request{}, false
	}

	var (
		method  = "GET"
		rawURL  string
		body    string
		headers spec.Headers
		parts   []spec.Part
	)

	for i := 1; i < len(tokens); i++ {
		flag, inline, hasInline := splitCurlFlag(tokens[i])

		// arg returns the flag's argument, either attached or the next token
		arg := func() (string, bool) {
			if hasInline {
				return inline, true
			}

			if i+1 >= len(tokens) {
				return "", false
			}

			i++

			return tokens[i], true
		}

		switch flag {
		case "--request":
			if value, ok := arg(); ok && value != "" {
				method = strings.ToUpper(value)
			}
		case "--header":
			if value, ok := arg(); ok {
				key, val, found := strings.Cut(value, ":")
				if found && strings.TrimSpace(key) != "" {
					headers = headers.Add(strings.TrimSpace(key), strings.TrimSpace(val))
				}
			}
		case "--data", "--data-raw", "--data-binary", "--data-ascii":
			if value, ok := arg(); ok {
				body = value
				method = promote(method)
			}
		case "--json":
			if value, ok := arg(); ok {
				body = value
				method = promote(method)

				if !headers.Has(spec.HeaderContentType) {
					headers = headers.Add(spec.HeaderContentType, spec.MediaJSON)
				}

				if !headers.Has("Accept") {
					headers = headers.Add("Accept", spec.MediaJSON)
				}
			}
		case "--user":
			if value, ok := arg(); ok {
				encoded := base64.StdEncoding.EncodeToString([]byte(value))
				headers = headers.Add(spec.HeaderAuthorization, "Basic "+encoded)
			}
		case "--form", "--form-string":
			if value, ok := arg(); ok {
				if part, ok := curlFormPart(value, flag == "--form-string"); ok {
					parts = append(parts, part)
					method = promote(method)
				}
			}
		case "--user-agent":
			if value, ok := arg(); ok {
				headers = headers.Add("User-Agent", value)
			}
		case "--referer":
			if value, ok := arg(); ok {
				headers = headers.Add("Referer", value)
			}
		case "--cookie":
			if value, ok := arg(); ok {
				headers = headers.Add("Cookie", value)
			}
		case "-I", "--head":
			method = "HEAD"
		case "--compressed":
			if !headers.Has("Accept-Encoding") {
				headers = headers.Add("Accept-Encoding", curlAcceptEncoding)
			}
		case "--url":
			if value, ok := arg(); ok && rawURL == "" {
				rawURL = value
			}
		default:
			if curlIgnoredWithArg[flag] {
				_, _ = arg()
				continue
			}

			if rawURL == "" && looksLikeURL(tokens[i]) {
				rawURL = tokens[i]
			}
		}
	}

	if rawURL == "" {
		return spec.Request{}, false
	}

	if len(parts) > 0 {
		body = ""
	}

	return spec.Request{
		Method:  method,
		URL:     rawURL,
		Headers: headers,
		Body:    body,
		Parts:   parts,
		Name:    curlName(rawURL),
		SaveDir: CurlSaveDir,
	}, true
}

// tokenizeCurl splits a possibly multi-line command into words the way a POSIX
// shell does: quotes and backslash escapes are resolved, a backslash at the end
// of a line joins it to the next and a '#' starting a word comments out the rest
// of the line. An unterminated quote runs to the end of the command.
func tokenizeCurl(command string) []string {
	command = strings.ReplaceAll(command, "\r\n", "\n")

	var (
		words  []string
		word   strings.Builder
		inWord bool
	)

	flush := func() {
		if inWord {
			words = append(words, word.String())
			word.Reset()
			inWord = false
		}
	}

	for i := 0; i < len(command); i++ {
		c := command[i]

		switch {
		case c == '\\':
			if i+1 < len(command) {
				i++
				if command[i] != '\n' {
					word.WriteByte(command[i])
					inWord = true
				}
			}
		case c == '\'':
			inWord = true

			end := strings.IndexByte(command[i+1:], '\'')
			if end < 0 {
				word.WriteString(command[i+1:])
				i = len(command)

				continue
			}

			word.WriteString(command[i+1 : i+1+end])
			i += end + 1
		case c == '"':
			inWord = true

			for i++; i < len(command) && command[i] != '"'; i++ {
				if command[i] == '\\' && i+1 < len(command) && strings.IndexByte("\"\\$`\n", command[i+1]) >= 0 {
					i++
					if command[i] == '\n' {
						continue
					}
				}

				word.WriteByte(command[i])
			}
		case c == ' ' || c == '\t' || c == '\n':
			flush()
		case c == '#' && !inWord:
			if end := strings.IndexByte(command[i:], '\n'); end >= 0 {
				i += end
			} else {
				i = len(command)
			}
		default:
			word.WriteByte(c)
			inWord = true
		}
	}

	flush()

	return words
}

// splitCurlFlag normalises a token into its long flag name, splitting out an
// attached argument as in "--request=PUT" or "-XPUT".
//
// Tokens that are not flags are returned as is with no inline argument.
func splitCurlFlag(token string) (flag, inline string, hasInline bool) {
	switch {
	case strings.HasPrefix(token, "--"):
		if name, value, found := strings.Cut(token, "="); found {
			return name, value, true
		}

		return token, "", false
	case strings.HasPrefix(token, "-") && len(token) >= 2: //nolint:mnd // "-X"
		long, ok := curlShort[token[:2]]
		if !ok {
			return token, "", false
		}

		if len(token) > 2 { //nolint:mnd // "-X"
			return long, token[2:], true
		}

		return long, "", false
	default:
		return token, "", false
	}
}

// curlFormPart converts a -F argument into a multipart part. Arguments with no
// '=' are skipped.
//
// A value starting with '@' is a file. The ";type=" suffix is honoured on both
// files and text, ";filename=" on files only. If literal is true (--form-string)
// the value is taken exactly as given and is always text.
func curlFormPart(arg string, literal bool) (spec.Part, bool) {
	name, value, found := strings.Cut(arg, "=")
	if !found || strings.TrimSpace(name) == "" {
		return nil, false
	}

	if literal {
		return spec.TextPart{Name: name, Value: value, ContentType: spec.MediaTextPlain}, true
	}

	isFile := strings.HasPrefix(value, "@")
	fields := splitFormValue(strings.TrimPrefix(value, "@"))

	var contentType, filename string
	for _, field := range fields[1:] {
		key, val, _ := strings.Cut(field, "=")
		switch strings.TrimSpace(key) {
		case "type":
			contentType = trimQuotes(strings.TrimSpace(val))
		case "filename":
			filename = trimQuotes(strings.TrimSpace(val))
		}
	}

	if !isFile {
		return spec.TextPart{
			Name:        name,
			Value:       trimQuotes(fields[0]),
			ContentType: withDefault(contentType, spec.MediaTextPlain),
		}, true
	}

	file := spec.FilePart{
		Name:        name,
		Path:        trimQuotes(fields[0]),
		Filename:    filename,
		ContentType: withDefault(contentType, spec.MediaOctetStream),
	}

	if file.Filename == "" {
		file.Filename = spec.LastSegment(file.Path)
	}

	return file, true
}

// splitFormValue splits a -F value on the ';' before each of its attributes,
// ignoring any inside double quotes.
func splitFormValue(value string) []string {
	var (
		fields []string
		quoted bool
		start  int
	)

	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '\\':
			if quoted {
				i++
			}
		case '"':
			quoted = !quoted
		case ';':
			if !quoted {
				fields = append(fields, value[start:i])
				start = i + 1
			}
		}
	}

	return append(fields, value[start:])
}

// curlName derives a request name from the last path segment of the URL.
func curlName(rawURL string) string {
	trimmed, _, _ := strings.Cut(rawURL, "?")
	trimmed, _, _ = strings.Cut(trimmed, "#")

	if parsed, err := url.Parse(trimmed); err == nil && parsed.Path == "" {
		// Bare host e.g. https://example.com
		return curlDefaultName
	}

	name := spec.LastSegment(trimmed)
	if strings.TrimSpace(name) == "" {
		return curlDefaultName
	}

	return name
}

// promote turns a GET into a POST, curl does this when given a body.
func promote(method string) string {
	if method == "GET" {
		return "POST"
	}

	return method
}

// startsCurl reports whether a line begins a curl command.
func startsCurl(line string) bool {
	trimmed := strings.TrimPrefix(strings.TrimSpace(line), "$ ")
	first, _, _ := strings.Cut(strings.TrimSpace(trimmed), " ")

	return strings.EqualFold(first, "curl")
}

// looksLikeURL reports whether a token is an http(s) URL.
func looksLikeURL(token string) bool {
	return strings.HasPrefix(token, "http://") || strings.HasPrefix(token, "https://")
}

// trimQuotes removes one layer of matching surrounding quotes from a -F value.
// Backslash escapes inside double quotes are resolved as curl does.
func trimQuotes(s string) string {
	if len(s) < 2 { //nolint:mnd // Two quotes
		return s
	}

	first, last := s[0], s[len(s)-1]

	switch {
	case first == '"' && last == '"':
		return doubleQuoteUnescaper.Replace(s[1 : len(s)-1])
	default:
		return s
	}
}

// doubleQuoteUnescaper resolves the backslash escapes curl honours inside a
// double quoted -F value.
//
//nolint:gochecknoglobals // Immutable once built
var doubleQuoteUnescaper = strings.NewReplacer(`\"`, `"`, `\\`, `\`)
