package cmd

import (
	"context"

	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/reqfile/internal/reqfile"
)

// ls returns the ls subcommand.
func ls() (*cli.Command, error) {
	var options reqfile.ListOptions

	return cli.New(
		"ls",
		cli.Short("List saved collections and their requests"),
		cli.Flag(&options.Root, "root", 'r', "The project root", cli.FlagDefault(defaultRoot)),
		cli.Flag(&options.Debug, "debug", 'd', "Enable debug logging"),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := reqfile.New(options.Debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.List(options)
		}),
	)
}
