package cmd

import (
	"context"

	"github.com/MakeNowJust/heredoc"
	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/reqfile/internal/reqfile"
	"go.followtheprocess.codes/reqfile/internal/syntax"
)

var checkLong = heredoc.Doc(`
	The path argument may be a directory or a file.

	If it is the name of a .http file, then this file alone is checked
	for problems.

	If it is a directory, this directory is scanned recursively for all
	files with the '.http' extension and any matching files will be checked.
`)

// check returns the check subcommand.
func check() (*cli.Command, error) {
	var options reqfile.CheckOptions

	return cli.New(
		"check",
		cli.Short("Check http files for problems"),
		cli.Long(checkLong),
		cli.Arg(&options.Path, "path", "Path to check, may be directory or file", cli.ArgDefault(".")),
		cli.Flag(&options.Debug, "debug", 'd', "Enable debug logging"),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := reqfile.New(options.Debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Check(ctx, syntax.PrettyConsoleHandler(cmd.Stderr()), options)
		}),
	)
}
