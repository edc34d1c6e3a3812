package cmd

import (
	"context"

	"github.com/MakeNowJust/heredoc"
	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/cli/flag"
	"go.followtheprocess.codes/reqfile/internal/format"
	"go.followtheprocess.codes/reqfile/internal/reqfile"
	"go.followtheprocess.codes/reqfile/internal/syntax"
)

var exportLong = heredoc.Doc(`
	Export request files to an alternative format, written to stdout.

	The path may be a single .http file or a directory, in which case every
	.http file beneath it is exported together, e.g. as one Postman collection.
`)

// export returns the export subcommand.
func export() (*cli.Command, error) {
	var (
		options reqfile.ExportOptions
		path    string
	)

	return cli.New(
		"export",
		cli.Short("Export .http files to an alternative format"),
		cli.Long(exportLong),
		cli.Arg(&path, "path", "Path to the .http file or directory"),
		cli.Flag(
			&options.Format,
			"format",
			'f',
			"Export format, one of "+formats(format.ExportFormats()),
			cli.FlagDefault("json"),
		),
		cli.Flag(&options.Name, "name", flag.NoShortHand, "Collection name, for formats that have one"),
		cli.Flag(&options.Debug, "debug", 'd', "Enable debug logging"),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := reqfile.New(options.Debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Export(ctx, path, syntax.PrettyConsoleHandler(cmd.Stderr()), options)
		}),
	)
}
