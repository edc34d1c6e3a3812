package reqfile_test

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.followtheprocess.codes/reqfile/internal/reqfile"
	"go.followtheprocess.codes/reqfile/internal/syntax"
	"go.followtheprocess.codes/test"
	"go.uber.org/goleak"
)

func TestCheckValid(t *testing.T) {
	pattern := filepath.Join("testdata", "check", "valid", "*.http")
	files, err := filepath.Glob(pattern)
	test.Ok(t, err)

	for _, file := range files {
		name := filepath.Base(file)
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}

			app := reqfile.New(false, "test", os.Stdin, stdout, stderr)

			err := app.Check(t.Context(), simpleErrorHandler(stderr), reqfile.CheckOptions{Path: file})
			test.Ok(t, err)

			test.Diff(t, stdout.String(), fmt.Sprintf("Success: %s is valid\n", file))
			test.Diff(t, stderr.String(), "")
		})
	}
}

func TestCheckValidDir(t *testing.T) {
	path := filepath.Join("testdata", "check", "valid")
	pattern := filepath.Join(path, "*.http")

	files, err := filepath.Glob(pattern)
	test.Ok(t, err)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	app := reqfile.New(false, "test", os.Stdin, stdout, stderr)

	err = app.Check(t.Context(), simpleErrorHandler(stderr), reqfile.CheckOptions{Path: path})
	test.Ok(t, err)

	s := &strings.Builder{}

	// Write a success line for every file in the dir
	for _, file := range files {
		fmt.Fprintf(s, "Success: %s is valid\n", file)
	}

	test.Diff(t, stdout.String(), s.String())
	test.Diff(t, stderr.String(), "")
}

func TestCheckInvalid(t *testing.T) {
	pattern := filepath.Join("testdata", "check", "invalid", "*.http")
	files, err := filepath.Glob(pattern)
	test.Ok(t, err)

	for _, file := range files {
		name := filepath.Base(file)
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}

			app := reqfile.New(false, "test", os.Stdin, stdout, stderr)

			err := app.Check(t.Context(), simpleErrorHandler(stderr), reqfile.CheckOptions{Path: file})
			test.Err(t, err)

			test.Equal(t, stdout.String(), "")

			// The actual diagnostics are tested extensively in internal/syntax/parser so
			// all we care about here is that something pointing at the file was reported
			test.True(t, strings.Contains(stderr.String(), file))
		})
	}
}

func TestCheckMissing(t *testing.T) {
	app := reqfile.New(false, "test", os.Stdin, io.Discard, io.Discard)

	err := app.Check(t.Context(), nil, reqfile.CheckOptions{Path: filepath.Join("testdata", "nope.http")})
	test.Err(t, err)
}

func TestOptionsValidate(t *testing.T) {
	test.Ok(t, reqfile.ImportOptions{Root: "."}.Validate())
	test.Ok(t, reqfile.ImportOptions{Format: "postman", Root: "."}.Validate())
	test.Err(t, reqfile.ImportOptions{Format: "har", Root: "."}.Validate())
	test.Err(t, reqfile.ImportOptions{Format: "curl", Root: " "}.Validate())

	test.Ok(t, reqfile.ExportOptions{Format: "yaml"}.Validate())
	test.Err(t, reqfile.ExportOptions{Format: ""}.Validate())
	test.Err(t, reqfile.ExportOptions{Format: "xml"}.Validate())
}

// simpleErrorHandler returns a [syntax.ErrorHandler] that returns a simple, unstyled
// string representation of the diagnostic.
func simpleErrorHandler(w io.Writer) syntax.ErrorHandler {
	return func(diag syntax.Diagnostic) {
		fmt.Fprintln(w, diag.String())
	}
}
