package format

import (
	_ "embed"
	"io"
	"strings"
	"text/template"

	"go.followtheprocess.codes/reqfile/internal/spec"
)

//go:embed templates/curl.txt.tmpl
var curlTempl string

// curlFunctions are custom template functions available in the curlTemplate.
//
//nolint:gochecknoglobals // This has to be here
var curlFunctions = template.FuncMap{
	"quote": shellQuote,
}

// curlTemplate is the parsed curl command line text/template.
//
//nolint:gochecknoglobals // Having the template as a global means it's parsed only once
var curlTemplate = template.Must(template.New("curl").Funcs(curlFunctions).Parse(curlTempl))

// CurlExporter is an [Exporter] that transforms requests into curl command lines.
type CurlExporter struct{}

// curlCommand is the template view of a single request.
type curlCommand struct {
	Name       string
	Method     string
	URL        string
	Body       string
	Headers    []string
	Forms      []curlForm
	NoRedirect bool
}

// curlForm is a single multipart field, Flag is -F or --form-string.
type curlForm struct {
	Flag  string
	Value string
}

// Export implements [Exporter] for [CurlExporter] and exports the given
// requests as curl commands, separated by blank lines.
func (c CurlExporter) Export(w io.Writer, requests []spec.Request) error {
	commands := make([]curlCommand, 0, len(requests))
	for _, request := range requests {
		commands = append(commands, newCurlCommand(request))
	}

	return curlTemplate.Execute(w, commands)
}

func newCurlCommand(request spec.Request) curlCommand {
	command := curlCommand{
		Name:       strings.TrimSpace(request.Name),
		Method:     request.CanonicalMethod(),
		URL:        request.URL,
		NoRedirect: request.NoRedirect,
	}

	multipart := request.IsMultipart()

	for _, header := range request.EffectiveHeaders() {
		// curl writes its own multipart Content-Type, including the boundary
		if multipart && strings.EqualFold(header.Key, spec.HeaderContentType) {
			continue
		}

		command.Headers = append(command.Headers, header.String())
	}

	if !multipart {
		command.Body = request.Body
		return command
	}

	for _, part := range request.Parts {
		switch part := part.(type) {
		case spec.FilePart:
			form := part.Name + "=@" + part.Path
			if part.Filename != "" && part.Filename != spec.LastSegment(part.Path) {
				form += ";filename=" + part.Filename
			}

			if part.ContentType != "" {
				form += ";type=" + part.ContentType
			}

			command.Forms = append(command.Forms, curlForm{Flag: "-F", Value: form})
		case spec.TextPart:
			command.Forms = append(command.Forms, textForm(part))
		}
	}

	return command
}

// textForm renders a text part. --form-string sends the value exactly as given,
// -F is only used when the part has its own content type and curl would read the
// value back unchanged.
func textForm(part spec.TextPart) curlForm {
	contentType := strings.TrimSpace(part.ContentType)
	if contentType == "" || strings.EqualFold(contentType, spec.MediaTextPlain) || !plainFormValue(part.Value) {
		return curlForm{Flag: "--form-string", Value: part.Name + "=" + part.Value}
	}

	return curlForm{Flag: "-F", Value: part.Name + "=" + part.Value + ";type=" + contentType}
}

// plainFormValue reports whether value can follow "name=" in a -F argument
// without curl treating any of it as a file reference, quoting or an attribute.
func plainFormValue(value string) bool {
	if strings.HasPrefix(value, "@") || strings.HasPrefix(value, "<") {
		return false
	}

	if strings.ContainsAny(value, `;\`) || strings.Count(value, `"`)%2 != 0 {
		return false
	}

	return !strings.HasPrefix(value, `"`)
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
