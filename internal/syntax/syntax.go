// Package syntax holds the source level types shared by the request file
// parser and its callers: positions within a file and the diagnostics
// reported against them.
package syntax

import (
	"cmp"
	"fmt"
	"io"
	"sync"

	"go.followtheprocess.codes/hue"
)

// Styles used by [PrettyConsoleHandler].
const (
	infoStyle    = hue.Blue | hue.Bold
	warningStyle = hue.Yellow | hue.Bold
	errorStyle   = hue.Red | hue.Bold
)

// Position is a source position within a request file, optionally spanning
// a range of columns on a single line.
//
// Positions without filenames are considered invalid, in the case of stdin
// the string "stdin" may be used.
type Position struct {
	Name     string `json:"name"`     // Filename
	Line     int    `json:"line"`     // Line number (1 indexed)
	StartCol int    `json:"startCol"` // Start column (1 indexed)
	EndCol   int    `json:"endCol"`   // End column (1 indexed), EndCol == StartCol when pointing to a single character
}

// IsValid reports whether the [Position] describes a valid source position.
//
// Name, Line and StartCol must be set and EndCol must not be before StartCol.
func (p Position) IsValid() bool {
	return p.Name != "" && p.Line >= 1 && p.StartCol >= 1 && p.EndCol >= p.StartCol
}

// String returns a string representation of a [Position], formatted so
// most editors and terminals can jump to it:
//
//   - "file:line:start-end" for a range of text on the line
//   - "file:line:start" for a single character (EndCol == StartCol)
func (p Position) String() string {
	if !p.IsValid() {
		return fmt.Sprintf(
			"BadPosition: {Name: %q, Line: %d, StartCol: %d, EndCol: %d}",
			p.Name,
			p.Line,
			p.StartCol,
			p.EndCol,
		)
	}

	if p.StartCol == p.EndCol {
		return fmt.Sprintf("%s:%d:%d", p.Name, p.Line, p.StartCol)
	}

	return fmt.Sprintf("%s:%d:%d-%d", p.Name, p.Line, p.StartCol, p.EndCol)
}

// LinePosition returns a [Position] covering the whole of a line of the given
// width, a zero width line is pointed at by its first column.
func LinePosition(name string, line, width int) Position {
	return Position{
		Name:     name,
		Line:     line,
		StartCol: 1,
		EndCol:   max(width, 1),
	}
}

// ComparePosition is like [cmp.Compare] for a [syntax.Position].
//
// Positions in the same file are ordered by line then column, positions
// in different files are compared alphabetically by name.
func ComparePosition(x, y Position) int {
	if x.Name != y.Name {
		return cmp.Compare(x.Name, y.Name)
	}

	if x.Line != y.Line {
		return cmp.Compare(x.Line, y.Line)
	}

	return cmp.Compare(x.StartCol, y.StartCol)
}

// Severity is how serious a [Diagnostic] is.
type Severity int

const (
	// SeverityInfo notes source text that is valid but not represented in the
	// parsed request, e.g. a comment, so would not survive being written back out.
	SeverityInfo Severity = iota

	// SeverityWarning is something odd in the source that the parser
	// recovered from, the request is still usable.
	SeverityWarning

	// SeverityError means the source could not be parsed.
	SeverityError
)

// String implements [fmt.Stringer] for a [Severity].
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic is a syntax level diagnostic.
type Diagnostic struct {
	Msg      string   `json:"msg"`      // A descriptive message explaining the problem
	Position Position `json:"position"` // The source position the diagnostic points to
	Severity Severity `json:"severity"` // How serious the diagnostic is
}

// String prints a [Diagnostic].
func (d Diagnostic) String() string {
	return d.Position.String() + ": " + d.Severity.String() + ": " + d.Msg
}

// IsProblem reports whether the diagnostic is a warning or an error, as
// opposed to an informational note.
func (d Diagnostic) IsProblem() bool {
	return d.Severity >= SeverityWarning
}

// ErrorHandler is a function called on each diagnostic as it is found.
type ErrorHandler func(diag Diagnostic)

// ProblemsOnly returns an [ErrorHandler] that passes warnings and errors on
// to handler and discards informational notes. A nil handler stays nil.
func ProblemsOnly(handler ErrorHandler) ErrorHandler {
	if handler == nil {
		return nil
	}

	return func(diag Diagnostic) {
		if diag.IsProblem() {
			handler(diag)
		}
	}
}

// PrettyConsoleHandler returns an [ErrorHandler] that writes each diagnostic
// to w, one per line, with the severity coloured.
func PrettyConsoleHandler(w io.Writer) ErrorHandler {
	var mu sync.Mutex

	return func(diag Diagnostic) {
		var style hue.Style

		switch diag.Severity {
		case SeverityInfo:
			style = infoStyle
		case SeverityError:
			style = errorStyle
		default:
			style = warningStyle
		}

		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(w, "%s: %s: %s\n", hue.Bold.Text(diag.Position.String()), style.Text(diag.Severity.String()), diag.Msg)
	}
}
