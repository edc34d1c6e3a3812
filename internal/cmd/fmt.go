package cmd

import (
	"context"

	"github.com/MakeNowJust/heredoc"
	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/cli/flag"
	"go.followtheprocess.codes/reqfile/internal/reqfile"
	"go.followtheprocess.codes/reqfile/internal/syntax"
)

var fmtLong = heredoc.Doc(`
	Rewrite request files in their canonical form.

	Each file is parsed and written back out exactly as reqfile itself would
	save it. Files with problems are reported and left untouched.

	With '--check' nothing is written, instead the command fails if any file
	is not already formatted. With '--diff' the changes are printed as a
	unified diff.
`)

// fmtCmd returns the fmt subcommand.
func fmtCmd() (*cli.Command, error) {
	var (
		options reqfile.FmtOptions
		path    string
	)

	return cli.New(
		"fmt",
		cli.Short("Format http files"),
		cli.Long(fmtLong),
		cli.Arg(&path, "path", "Path to format, may be directory or file", cli.ArgDefault(".")),
		cli.Flag(&options.Check, "check", flag.NoShortHand, "Fail if any file is not formatted"),
		cli.Flag(&options.Diff, "diff", flag.NoShortHand, "Print a diff instead of rewriting files"),
		cli.Flag(&options.Debug, "debug", 'd', "Enable debug logging"),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := reqfile.New(options.Debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Fmt(ctx, path, syntax.PrettyConsoleHandler(cmd.Stderr()), options)
		}),
	)
}
