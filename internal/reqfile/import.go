package reqfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.followtheprocess.codes/msg"
	"go.followtheprocess.codes/reqfile/internal/format"
	"go.followtheprocess.codes/reqfile/internal/query"
	"go.followtheprocess.codes/reqfile/internal/store"
)

// stdinPath is the path meaning "read from stdin".
const stdinPath = "-"

// ImportOptions are the options passed to the import subcommand.
type ImportOptions struct {
	// Format is the format of the data to import, empty means detect it from
	// the file extension.
	Format string

	// Root is the project root request files are saved beneath.
	Root string

	// DryRun prints the request files instead of saving them.
	DryRun bool

	// VariableizeHost replaces the scheme and host of every imported
	// URL with a {{host}} variable.
	VariableizeHost bool

	// Debug enables debug logging.
	Debug bool
}

// Validate reports whether the ImportOptions is valid, returning a non-nil
// error if it's not.
func (i ImportOptions) Validate() error {
	if i.Format != "" && !slices.Contains(format.ImportFormats(), i.Format) {
		return fmt.Errorf(
			"invalid option for --format %q, allowed values are %s",
			i.Format,
			strings.Join(format.ImportFormats(), ", "),
		)
	}

	if strings.TrimSpace(i.Root) == "" {
		return errors.New("--root cannot be empty")
	}

	return nil
}

// Import implements the import subcommand.
//
// The data in path (or stdin if path is "-") is converted to requests which
// are saved as request files beneath options.Root.
func (a App) Import(ctx context.Context, path string, options ImportOptions) error {
	logger := a.logger.Prefixed("import").With(slog.String("path", path))

	if err := options.Validate(); err != nil {
		return err
	}

	name := options.Format
	if name == "" {
		name = detectFormat(path)
		logger.Debug("Detected import format", slog.String("format", name))
	}

	importer, err := format.ImporterFor(name)
	if err != nil {
		return err
	}

	var r io.Reader = a.stdin

	if path != stdinPath {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("could not open file: %w", err)
		}
		defer f.Close()

		r = f
	}

	requests, err := importer.Import(r)
	if err != nil {
		return err
	}

	if len(requests) == 0 {
		return fmt.Errorf("no %s requests found in %s", name, path)
	}

	logger.Debug("Imported requests", slog.Int("count", len(requests)))

	if options.VariableizeHost {
		for i := range requests {
			requests[i].URL = query.VariableizeHost(requests[i].URL)
		}
	}

	if options.DryRun {
		for _, request := range requests {
			fmt.Fprint(a.stdout, request.String())
		}

		return nil
	}

	saved, err := store.New(options.Root).SaveAll(ctx, requests)
	if err != nil {
		return fmt.Errorf("could not save imported requests: %w", err)
	}

	for _, result := range saved {
		display := relativeTo(options.Root, result.Path)

		switch {
		case result.Duplicate:
			logger.Debug("Skipped identical request", slog.String("file", display))
		case result.Changed:
			msg.Fsuccess(a.stdout, "Saved %s", display)
		default:
			msg.Fsuccess(a.stdout, "%s is up to date", display)
		}
	}

	return nil
}

// detectFormat guesses the import format from the file extension.
func detectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "postman"
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "curl"
	}
}

// relativeTo returns path relative to root in slash form for display, or
// path itself if that isn't possible.
func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}

	return filepath.ToSlash(rel)
}
