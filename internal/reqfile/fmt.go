package reqfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aymanbagabas/go-udiff"
	"go.followtheprocess.codes/msg"
	"go.followtheprocess.codes/reqfile/internal/syntax"
	"golang.org/x/sync/errgroup"
)

// FmtOptions are the options passed to the fmt subcommand.
type FmtOptions struct {
	// Check reports unformatted files as an error rather than rewriting them.
	Check bool

	// Diff prints a unified diff of the changes rather than rewriting files.
	Diff bool

	// Debug enables debug logging.
	Debug bool
}

// formatted is the result of formatting a single request file.
type formatted struct {
	path     string // The request file
	original string // Its content on disk
	canon    string // Its canonical content
	problems int    // Number of warnings and errors found parsing it
	losses   int    // Number of notes about content the canonical form drops
}

// Fmt implements the fmt subcommand.
//
// Each request file given by path is parsed and serialised back to its canonical
// form. Files with any diagnostic are never rewritten, a warning means parsing
// may have gone wrong and a note means the canonical form would drop some of
// the file's content.
func (a App) Fmt(ctx context.Context, path string, handler syntax.ErrorHandler, options FmtOptions) error {
	logger := a.logger.Prefixed("fmt").With(slog.String("path", path))

	paths, err := collect(path)
	if err != nil {
		return err
	}

	logger.Debug("Formatting http files given by path", slog.Int("number", len(paths)))

	results := make([]formatted, len(paths))

	group, ctx := errgroup.WithContext(ctx)

	for i, file := range paths {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			contents, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("could not read file: %w", err)
			}

			result := formatted{path: file, original: string(contents)}

			request, err := parseFile(file, func(diag syntax.Diagnostic) {
				if diag.IsProblem() {
					result.problems++
				} else {
					result.losses++
				}

				if handler != nil {
					handler(diag)
				}
			})
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			result.canon = request.String()
			results[i] = result

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	var unformatted int

	for _, result := range results {
		if result.problems > 0 {
			msg.Fwarn(a.stderr, "skipping %s, fix the problems reported above first", result.path)
			continue
		}

		if result.losses > 0 {
			msg.Fwarn(a.stderr, "skipping %s, formatting would drop the content noted above", result.path)
			continue
		}

		if result.original == result.canon {
			logger.Debug("File already formatted", slog.String("file", result.path))
			continue
		}

		unformatted++

		switch {
		case options.Diff:
			fmt.Fprint(a.stdout, udiff.Unified(result.path, result.path+" (formatted)", result.original, result.canon))
		case options.Check:
			fmt.Fprintln(a.stdout, result.path)
		default:
			info, err := os.Stat(result.path)
			if err != nil {
				return fmt.Errorf("could not get file info: %w", err)
			}

			if err := os.WriteFile(result.path, []byte(result.canon), info.Mode().Perm()); err != nil {
				return fmt.Errorf("could not write %s: %w", result.path, err)
			}

			msg.Fsuccess(a.stdout, "Formatted %s", result.path)
		}
	}

	if options.Check && unformatted > 0 {
		return fmt.Errorf("%d of %d file(s) are not formatted", unformatted, len(paths))
	}

	return nil
}
