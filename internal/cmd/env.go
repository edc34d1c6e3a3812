package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/reqfile/internal/reqfile"
)

var envLong = heredoc.Doc(`
	Show the environments defined in the project.

	Environments live in 'http-client-plus/environments', the public
	'http-client.env.json' and the private 'http-client.private.env.json'
	whose values take precedence.

	With no name, the available environments are listed. Given a name as the
	only argument, the merged variables of that environment are printed.
`)

// env returns the env subcommand.
func env() (*cli.Command, error) {
	var options reqfile.EnvOptions

	return cli.New(
		"env",
		cli.Short("Show project environments"),
		cli.Long(envLong),
		cli.Flag(&options.Root, "root", 'r', "The project root", cli.FlagDefault(defaultRoot)),
		cli.Flag(&options.Debug, "debug", 'd', "Enable debug logging"),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			switch args := cmd.Args(); len(args) {
			case 0:
			case 1:
				options.Name = args[0]
			default:
				return fmt.Errorf("env takes at most one environment name, got %d: %v", len(args), args)
			}

			app := reqfile.New(options.Debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Env(options)
		}),
	)
}

// formats renders a list of format names for flag usage.
func formats(names []string) string {
	return "(" + strings.Join(names, "|") + ")"
}
