package reqfile

import (
	"context"
	"fmt"
	"log/slog"

	"go.followtheprocess.codes/msg"
	"go.followtheprocess.codes/reqfile/internal/syntax"
	"golang.org/x/sync/errgroup"
)

// CheckOptions are the options passed to the check subcommand.
type CheckOptions struct {
	// Path is the path (file or directory) to check.
	Path string

	// Debug enables debug logging.
	Debug bool
}

// Check implements the check subcommand.
//
// Every request file given by options.Path is parsed concurrently, warnings and
// errors are passed to handler as they are found. Check fails if any file has
// one or could not be read.
func (a App) Check(ctx context.Context, handler syntax.ErrorHandler, options CheckOptions) error {
	logger := a.logger.Prefixed("check").With(slog.String("path", options.Path))
	logger.Debug("Checking path")

	paths, err := collect(options.Path)
	if err != nil {
		return err
	}

	logger.Debug("Checking http files given by path", slog.Int("number", len(paths)))

	problems := make([]int, len(paths))

	group, ctx := errgroup.WithContext(ctx)

	for i, path := range paths {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			_, err := parseFile(path, func(diag syntax.Diagnostic) {
				if !diag.IsProblem() {
					return
				}

				problems[i]++

				if handler != nil {
					handler(diag)
				}
			})
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	var invalid int

	for i, path := range paths {
		if problems[i] > 0 {
			invalid++
			continue
		}

		msg.Fsuccess(a.stdout, "%s is valid", path)
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d file(s) have problems", invalid, len(paths))
	}

	return nil
}
