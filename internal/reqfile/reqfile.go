// Package reqfile implements the functionality of the program, the CLI in package cmd is simply the
// entrypoint to exported functions and methods in this package.
package reqfile

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.followtheprocess.codes/hue"
	"go.followtheprocess.codes/log"
	"go.followtheprocess.codes/reqfile/internal/spec"
	"go.followtheprocess.codes/reqfile/internal/store"
	"go.followtheprocess.codes/reqfile/internal/syntax"
	"go.followtheprocess.codes/reqfile/internal/syntax/parser"
)

// Styles.
const (
	// keyStyle is the style used for printing keys like environment
	// variable names or request methods in listings.
	keyStyle = hue.Cyan

	// titleStyle is the style used for collection names and other headings.
	titleStyle = hue.Bold

	// dimmed is the style used for printing informational content like
	// file paths.
	dimmed = hue.BrightBlack | hue.Italic
)

// App represents the reqfile program.
type App struct {
	stdin   io.Reader   // Import data may be read from here
	stdout  io.Writer   // Normal program output is written here
	stderr  io.Writer   // Logs and errors are written here
	logger  *log.Logger // The logger for the application
	version string      // The app version
}

// New returns a new [App].
func New(debug bool, version string, stdin io.Reader, stdout, stderr io.Writer) App {
	level := log.LevelInfo
	if debug {
		level = log.LevelDebug
	}

	logger := log.New(stderr, log.WithLevel(level))

	return App{
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger,
		version: version,
	}
}

// collect returns the request files given by path, either path itself or, if it
// is a directory, every .http file beneath it in lexical order.
func collect(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("could not get path info: %w", err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var paths []string

	err = filepath.WalkDir(path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && filepath.Ext(path) == store.Ext {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not walk %s: %w", path, err)
	}

	slices.Sort(paths)

	return paths, nil
}

// parseFile reads and parses a single request file.
func parseFile(path string, handler syntax.ErrorHandler) (spec.Request, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return spec.Request{}, fmt.Errorf("could not read file: %w", err)
	}

	return parser.New(path, contents, handler).Parse()
}
