package spec

import (
	"fmt"
	"strings"
)

// Part is a single part of a multipart/form-data body.
//
// A Part is either a [TextPart] carrying an inline value or a [FilePart]
// referencing a local file, no other implementations exist.
type Part interface {
	// FieldName returns the form field name of the part.
	FieldName() string

	// MediaType returns the declared content type of the part, "" if none.
	MediaType() string

	// part is unexported so only this package can implement Part.
	part()
}

// TextPart is a multipart part whose content is given inline.
type TextPart struct {
	Name        string // Form field name
	Value       string // Inline value
	ContentType string // Optional content type, importers default it to text/plain
}

// FieldName implements [Part] for a [TextPart].
func (t TextPart) FieldName() string { return t.Name }

// MediaType implements [Part] for a [TextPart].
func (t TextPart) MediaType() string { return t.ContentType }

func (TextPart) part() {}

// FilePart is a multipart part whose content is read from a file at send time.
type FilePart struct {
	Name        string // Form field name
	Path        string // Path to the file, relative or absolute
	Filename    string // Filename sent in the Content-Disposition, optional
	ContentType string // Optional content type, importers default it to application/octet-stream
}

// FieldName implements [Part] for a [FilePart].
func (f FilePart) FieldName() string { return f.Name }

// MediaType implements [Part] for a [FilePart].
func (f FilePart) MediaType() string { return f.ContentType }

func (FilePart) part() {}

// DisplayFilename returns the filename to advertise for the part: the explicit
// Filename, else the last segment of Path, else "file".
func (f FilePart) DisplayFilename() string {
	switch {
	case f.Filename != "":
		return f.Filename
	case f.Path != "":
		return LastSegment(f.Path)
	default:
		return "file"
	}
}

// writePart renders a single part (without its leading boundary line) in
// request file form.
func writePart(builder *strings.Builder, p Part) {
	fmt.Fprintf(builder, "Content-Disposition: form-data; name=\"%s\"", p.FieldName())

	file, isFile := p.(FilePart)
	if isFile {
		fmt.Fprintf(builder, "; filename=\"%s\"", file.DisplayFilename())
	}

	builder.WriteByte('\n')

	if ct := strings.TrimSpace(p.MediaType()); ct != "" {
		fmt.Fprintf(builder, "%s: %s\n", HeaderContentType, ct)
	}

	builder.WriteByte('\n')

	switch part := p.(type) {
	case FilePart:
		builder.WriteString(FileRefPrefix)
		builder.WriteString(strings.TrimSpace(part.Path))
		builder.WriteByte('\n')
	case TextPart:
		builder.WriteString(part.Value)
		builder.WriteByte('\n')
	}
}
