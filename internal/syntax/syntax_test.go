package syntax_test

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"go.followtheprocess.codes/reqfile/internal/syntax"
	"go.followtheprocess.codes/test"
)

func TestPositionString(t *testing.T) {
	tests := []struct {
		name string          // Name of the test case
		want string          // Expected return value
		pos  syntax.Position // Position under test
	}{
		{
			name: "empty",
			pos:  syntax.Position{},
			want: `BadPosition: {Name: "", Line: 0, StartCol: 0, EndCol: 0}`,
		},
		{
			name: "missing name",
			pos:  syntax.Position{Line: 12, StartCol: 2, EndCol: 6},
			want: `BadPosition: {Name: "", Line: 12, StartCol: 2, EndCol: 6}`,
		},
		{
			name: "zero line",
			pos:  syntax.Position{Name: "file.http", Line: 0, StartCol: 12, EndCol: 19},
			want: `BadPosition: {Name: "file.http", Line: 0, StartCol: 12, EndCol: 19}`,
		},
		{
			name: "end less than start",
			pos:  syntax.Position{Name: "test.http", Line: 1, StartCol: 6, EndCol: 4},
			want: `BadPosition: {Name: "test.http", Line: 1, StartCol: 6, EndCol: 4}`,
		},
		{
			name: "valid single column",
			pos:  syntax.Position{Name: "demo.http", Line: 1, StartCol: 6, EndCol: 6},
			want: "demo.http:1:6",
		},
		{
			name: "valid column range",
			pos:  syntax.Position{Name: "demo.http", Line: 17, StartCol: 20, EndCol: 26},
			want: "demo.http:17:20-26",
		},
		{
			name: "whole line",
			pos:  syntax.LinePosition("demo.http", 3, 12),
			want: "demo.http:3:1-12",
		},
		{
			name: "empty line",
			pos:  syntax.LinePosition("demo.http", 3, 0),
			want: "demo.http:3:1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.Equal(t, tt.pos.String(), tt.want)
		})
	}
}

func TestComparePosition(t *testing.T) {
	positions := []syntax.Position{
		{Name: "b.http", Line: 1, StartCol: 1, EndCol: 1},
		{Name: "a.http", Line: 4, StartCol: 2, EndCol: 2},
		{Name: "a.http", Line: 4, StartCol: 1, EndCol: 1},
		{Name: "a.http", Line: 2, StartCol: 9, EndCol: 9},
	}

	slices.SortFunc(positions, syntax.ComparePosition)

	got := make([]string, 0, len(positions))
	for _, pos := range positions {
		got = append(got, pos.String())
	}

	want := []string{"a.http:2:9", "a.http:4:1", "a.http:4:2", "b.http:1:1"}
	test.True(t, slices.Equal(got, want), test.Context("got %v, want %v", got, want))
}

func TestDiagnosticString(t *testing.T) {
	diag := syntax.Diagnostic{
		Msg:      "header line has no ':'",
		Position: syntax.LinePosition("demo.http", 2, 6),
		Severity: syntax.SeverityWarning,
	}

	test.Equal(t, diag.String(), "demo.http:2:1-6: warning: header line has no ':'")
	test.Equal(t, syntax.Severity(7).String(), "Severity(7)")
}

func TestPrettyConsoleHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := syntax.PrettyConsoleHandler(buf)

	handler(syntax.Diagnostic{
		Msg:      "header line has no key",
		Position: syntax.LinePosition("demo.http", 3, 5),
		Severity: syntax.SeverityWarning,
	})
	handler(syntax.Diagnostic{
		Msg:      "could not read line",
		Position: syntax.LinePosition("demo.http", 9, 0),
		Severity: syntax.SeverityError,
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	test.Equal(t, len(lines), 2)

	test.True(t, strings.Contains(lines[0], "demo.http:3:1-5"), test.Context("line: %q", lines[0]))
	test.True(t, strings.Contains(lines[0], "warning"), test.Context("line: %q", lines[0]))
	test.True(t, strings.HasSuffix(lines[0], "header line has no key"), test.Context("line: %q", lines[0]))

	test.True(t, strings.Contains(lines[1], "demo.http:9:1"), test.Context("line: %q", lines[1]))
	test.True(t, strings.Contains(lines[1], "error"), test.Context("line: %q", lines[1]))
}

func TestProblemsOnly(t *testing.T) {
	var got []syntax.Severity

	handler := syntax.ProblemsOnly(func(diag syntax.Diagnostic) {
		got = append(got, diag.Severity)
	})

	for _, severity := range []syntax.Severity{syntax.SeverityInfo, syntax.SeverityWarning, syntax.SeverityInfo, syntax.SeverityError} {
		handler(syntax.Diagnostic{
			Msg:      "something",
			Position: syntax.LinePosition("demo.http", 1, 1),
			Severity: severity,
		})
	}

	want := []syntax.Severity{syntax.SeverityWarning, syntax.SeverityError}
	test.True(t, slices.Equal(got, want), test.Context("got %v, want %v", got, want))

	test.Equal(t, syntax.SeverityInfo.String(), "info")
	test.True(t, syntax.ProblemsOnly(nil) == nil, test.Context("nil handler should stay nil"))
}
