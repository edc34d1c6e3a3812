package reqfile

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.followtheprocess.codes/reqfile/internal/format"
	"go.followtheprocess.codes/reqfile/internal/spec"
	"go.followtheprocess.codes/reqfile/internal/syntax"
)

// ExportOptions are the flags passed to the export subcommand.
type ExportOptions struct {
	// Format is the format of the export e.g. curl, postman etc.
	Format string

	// Name is the collection name used by formats that have one, e.g. postman.
	Name string

	// Debug controls debug logging.
	Debug bool
}

// Validate reports whether the ExportOptions is valid, returning a non-nil
// error if it's not.
func (e ExportOptions) Validate() error {
	if !slices.Contains(format.ExportFormats(), e.Format) {
		return fmt.Errorf(
			"invalid option for --format %q, allowed values are %s",
			e.Format,
			strings.Join(format.ExportFormats(), ", "),
		)
	}

	return nil
}

// Export handles the export subcommand.
//
// Path is a request file or a directory of them, every request found is
// exported together in the chosen format and written to stdout.
func (a App) Export(ctx context.Context, path string, handler syntax.ErrorHandler, options ExportOptions) error {
	logger := a.logger.Prefixed("export")

	logger.Debug("Export configuration", slog.String("options", fmt.Sprintf("%+v", options)))

	if err := options.Validate(); err != nil {
		return err
	}

	exporter, err := format.ExporterFor(options.Format)
	if err != nil {
		return err
	}

	if options.Format == "postman" && options.Name != "" {
		exporter = format.PostmanExporter{Name: options.Name}
	}

	paths, err := collect(path)
	if err != nil {
		return err
	}

	start := time.Now()

	requests := make([]spec.Request, 0, len(paths))

	for _, file := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		request, err := parseFile(file, syntax.ProblemsOnly(handler))
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		requests = append(requests, request)
	}

	if len(requests) == 0 {
		return fmt.Errorf("no request files found in %s", path)
	}

	logger.Debug(
		"Parsed files successfully",
		slog.Int("count", len(requests)),
		slog.Duration("took", time.Since(start)),
	)

	if err := exporter.Export(a.stdout, requests); err != nil {
		return fmt.Errorf("could not export requests as %s: %w", options.Format, err)
	}

	return nil
}
