package cmd

import (
	"context"

	"github.com/MakeNowJust/heredoc"
	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/cli/flag"
	"go.followtheprocess.codes/reqfile/internal/format"
	"go.followtheprocess.codes/reqfile/internal/reqfile"
)

var importLong = heredoc.Doc(`
	Import requests from another format and save each one as a .http
	request file beneath the project root.

	Curl commands are saved to the 'Curl_Imports' collection, Postman
	collections to a collection of the same name. If the format is not
	given it is guessed from the file extension, with anything unknown
	treated as curl.

	With no file the data is read from stdin.
`)

// importCmd returns the import subcommand.
func importCmd() (*cli.Command, error) {
	var (
		options reqfile.ImportOptions
		file    string
	)

	return cli.New(
		"import",
		cli.Short("Import requests in other formats to .http files"),
		cli.Long(importLong),
		cli.Arg(&file, "file", "Path to a file containing the import data, omit to read stdin", cli.ArgDefault("-")),
		cli.Flag(&options.Format, "format", 'f', "Format of the data to import, one of "+formats(format.ImportFormats())),
		cli.Flag(&options.Root, "root", 'r', "The project root", cli.FlagDefault(defaultRoot)),
		cli.Flag(&options.DryRun, "dry-run", flag.NoShortHand, "Print the request files instead of saving them"),
		cli.Flag(
			&options.VariableizeHost,
			"variableize-host",
			flag.NoShortHand,
			"Replace the host of every URL with a {{host}} variable",
		),
		cli.Flag(&options.Debug, "debug", 'd', "Enable debug logging"),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := reqfile.New(options.Debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Import(ctx, file, options)
		}),
	)
}
